package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"relay-back/internal/apperrors"
)

const (
	StatusErr           = "error"
	StatusSuccess       = "success"
	StatusNotAvailable  = "not available"
	StatusForbidden     = "forbidden"
	StatusNotFound      = "not_found"
	StatusConflict      = "conflict"
	StatusInvalidInput  = "invalid_input"
	StatusInternalError = "internal_error"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
)

type BaseHandler struct{}

// Abort writes the response matching err's kind. Unknown errors become 500.
func (h *BaseHandler) Abort(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ResponseWithMessage{Status: StatusInvalidInput, Message: err.Error()})
	case errors.Is(err, apperrors.ErrMessageDoesNotExist), errors.Is(err, apperrors.ErrUserDoesNotExist):
		c.JSON(http.StatusNotFound, ResponseWithMessage{Status: StatusNotFound, Message: err.Error()})
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, ResponseWithMessage{Status: StatusForbidden, Message: err.Error()})
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, ResponseWithMessage{Status: StatusConflict, Message: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, ResponseWithMessage{Status: StatusNotAvailable, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ResponseWithMessage{Status: StatusInternalError, Message: err.Error()})
	}
}

func (h *BaseHandler) BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ResponseWithMessage{
		Status:  StatusErr,
		Message: err.Error(),
	})
}

// ResponseWithData
// @Description Общий ответ success/error, содержащий произвольные данные.
type ResponseWithData struct {
	Status string `json:"status"` // Результат запроса
	Data   any    `json:"data"`   // Объект полезной нагрузки
} // @Name _ResponseWithData

// ResponseWithMessage
// @Description Общий простой ответ, который передает только понятное для человека сообщение.
type ResponseWithMessage struct {
	Status  string `json:"status"`  // Результат запроса
	Message string `json:"message"` // Человеко-читаемое сообщение
} // @Name _ResponseWithMessage

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "method not allowed on this endpoint",
	})
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "page not found",
	})
}
