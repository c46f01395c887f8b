package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"relay-back/internal/model"
)

type UserService interface {
	Register(ctx context.Context, userID, password string) (model.User, error)
	ListUsers(ctx context.Context) ([]string, error)
}

type UserHandler struct {
	BaseHandler

	log *zap.Logger
	svc UserService
}

func NewUserHandler(log *zap.Logger, svc UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{},
		log:         log,
		svc:         svc,
	}
}

// CreateUser
// @Summary Зарегистрировать идентичность.
// @Description Регистрация не нужна для отправки и получения, идентичность это любая непустая строка.
// @Tags Users
// @Accept json
// @Produce json
// @Param input body model.CreateUserRequest true "Данные пользователя"
// @Success 201 {object} ResponseWithData{data=model.User} "Пользователь создан"
// @Failure 400 {object} ResponseWithMessage "Пустые поля"
// @Failure 409 {object} ResponseWithMessage "Пользователь уже существует"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	user, err := h.svc.Register(ctx, req.UserID, req.Password)
	if err != nil {
		h.Abort(c, err)
		return
	}

	h.log.Info("User registered", zap.String("user_id", user.ID))

	c.JSON(http.StatusCreated, ResponseWithData{
		Status: StatusSuccess,
		Data:   user,
	})
}

// ListUsers
// @Summary Список идентичностей.
// @Tags Users
// @Produce json
// @Success 200 {object} ResponseWithData{data=model.UsersResponse} "Идентификаторы"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   model.UsersResponse{Users: users},
	})
}
