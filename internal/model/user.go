package model

import (
	"time"
)

// User
// @Description Зарегистрированная идентичность. Регистрация не обязательна для отправки и получения.
type User struct {
	ID             string    `example:"alice"                json:"userId"`                                          // Идентификатор пользователя
	HashedPassword []byte    `json:"-"                       swaggerignore:"true"`                                   // Хэш пароля
	CreatedAt      time.Time `example:"2006-01-02T15:04:05Z" format:"date-time" json:"createdAt" swaggertype:"string"` // Timestamp регистрации
} // @Name User

// CreateUserRequest
// @Description Данные для регистрации идентичности.
type CreateUserRequest struct {
	UserID   string `binding:"required" example:"alice"    json:"userId"`                      // Идентификатор пользователя
	Password string `binding:"required" example:"12345678" format:"password" json:"password"` // Пароль
} // @Name CreateUserRequest

// UsersResponse
// @Description Список зарегистрированных идентичностей.
type UsersResponse struct {
	Users []string `json:"users"` // Идентификаторы
} // @Name UsersResponse
