package model

import (
	"time"
)

// Message
// @Description Сообщение, ожидающее получателя в его inbox.
type Message struct {
	ID        string    `example:"0192a6f3-8d1c-7c3e-9b4f-3f1a2b7c9d10" json:"id"`                                           // Уникальный идентификатор, выдаётся при Send
	From      string    `example:"alice"                                json:"from"`                                         // Отправитель
	To        string    `example:"bob"                                  json:"to"`                                           // Получатель
	Content   string    `example:"hi"                                   json:"content"`                                      // Содержимое сообщения
	Timestamp time.Time `example:"2006-01-02T15:04:05Z"                 format:"date-time" json:"timestamp" swaggertype:"string"` // Время создания
	Verified  bool      `example:"false"                                json:"verified"`                                     // Получатель подтвердил доставку
} // @Name Message

// IsParticipant reports whether userID sent or receives the message.
func (m Message) IsParticipant(userID string) bool {
	return m.From == userID || m.To == userID
}

// SendMessageRequest
// @Description Данные для отправки сообщения.
type SendMessageRequest struct {
	From    string `binding:"required" example:"alice" json:"from"`    // Отправитель
	To      string `binding:"required" example:"bob"   json:"to"`      // Получатель
	Content string `binding:"required" example:"hi"    json:"content"` // Содержимое
} // @Name SendMessageRequest

// SendMessageResponse
// @Description Идентификатор созданного сообщения.
type SendMessageResponse struct {
	ID string `example:"0192a6f3-8d1c-7c3e-9b4f-3f1a2b7c9d10" json:"id"` // Идентификатор сообщения
} // @Name SendMessageResponse

// AcknowledgeRequest
// @Description Подтверждение получения сообщения.
type AcknowledgeRequest struct {
	ID string `binding:"required" example:"0192a6f3-8d1c-7c3e-9b4f-3f1a2b7c9d10" json:"id"` // Идентификатор сообщения
} // @Name AcknowledgeRequest

// MessagesResponse
// @Description Список сообщений.
type MessagesResponse struct {
	Messages []Message `json:"messages"` // Сообщения
} // @Name MessagesResponse

type MessageQuery struct {
	MessageID string `form:"messageId"`
	UserID    string `form:"userId"`
}

type RemoveMessageQuery struct {
	MessageID string `binding:"required" form:"messageId"`
	UserID    string `form:"userId"`
}

type InboxQuery struct {
	UserID string `binding:"required" form:"userId"`
}

type ClearInboxQuery struct {
	UserID string `binding:"required" form:"userId"`
	Purge  bool   `form:"purge"`
}

// ClearInboxResponse
// @Description Идентификаторы, удалённые из inbox.
type ClearInboxResponse struct {
	Dropped []string `json:"dropped"` // Удалённые идентификаторы
} // @Name ClearInboxResponse
