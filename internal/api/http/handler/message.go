package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"relay-back/internal/apperrors"
	"relay-back/internal/model"
)

type MessageService interface {
	SendIdempotent(ctx context.Context, key, from, to, content string) (string, error)
	Get(ctx context.Context, id string) (model.Message, error)
	List(ctx context.Context, userID string) ([]model.Message, error)
	Acknowledge(ctx context.Context, id string) (model.Message, error)
	Remove(ctx context.Context, userID, id string) error
}

type MessageHandler struct {
	BaseHandler

	log             *zap.Logger
	svc             MessageService
	maxContentBytes int
}

func NewMessageHandler(log *zap.Logger, svc MessageService, maxContentBytes int) *MessageHandler {
	return &MessageHandler{
		BaseHandler:     BaseHandler{},
		log:             log,
		svc:             svc,
		maxContentBytes: maxContentBytes,
	}
}

// SendMessage
// @Summary Отправить сообщение.
// @Description Сохраняет сообщение и ставит его в inbox получателя одной операцией.
// @Description Повтор с тем же заголовком Idempotency-Key от того же отправителя возвращает исходный id.
// @Tags Messages
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Ключ идемпотентности"
// @Param input body model.SendMessageRequest true "Сообщение"
// @Success 200 {object} ResponseWithData{data=model.SendMessageResponse} "Идентификатор сообщения"
// @Failure 400 {object} ResponseWithMessage "Пустые from/to/content или слишком большое сообщение"
// @Failure 429 {object} ResponseWithMessage "Превышен лимит запросов"
// @Failure 500 {object} ResponseWithMessage "Внутренняя ошибка"
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	if h.maxContentBytes > 0 && len(req.Content) > h.maxContentBytes {
		h.Abort(c, fmt.Errorf("%w: content exceeds %d bytes", apperrors.ErrInvalidInput, h.maxContentBytes))
		return
	}

	id, err := h.svc.SendIdempotent(ctx, c.GetHeader(IdempotencyKeyHeader), req.From, req.To, req.Content)
	if err != nil {
		h.log.Debug("Failed to send message", zap.Error(err))
		h.Abort(c, err)

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   model.SendMessageResponse{ID: id},
	})
}

// GetMessages
// @Summary Найти сообщения.
// @Description С messageId возвращает одно сообщение, с userId все сообщения, где пользователь отправитель или получатель,
// @Description без параметров все сообщения в хранилище. Ничего не меняет.
// @Tags Messages
// @Produce json
// @Param messageId query string false "Идентификатор сообщения"
// @Param userId query string false "Идентификатор пользователя"
// @Success 200 {object} ResponseWithData{data=model.MessagesResponse} "Сообщения"
// @Failure 404 {object} ResponseWithMessage "Сообщение не найдено"
// @Router /messages [get]
func (h *MessageHandler) GetMessages(c *gin.Context) {
	ctx := c.Request.Context()

	var query model.MessageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err)
		return
	}

	if query.MessageID != "" {
		message, err := h.svc.Get(ctx, query.MessageID)
		if err != nil {
			h.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, ResponseWithData{
			Status: StatusSuccess,
			Data:   model.MessagesResponse{Messages: []model.Message{message}},
		})

		return
	}

	messages, err := h.svc.List(ctx, query.UserID)
	if err != nil {
		h.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   model.MessagesResponse{Messages: messages},
	})
}

// AcknowledgeMessage
// @Summary Подтвердить получение.
// @Description Ставит verified=true. Сообщение остаётся в inbox до явного удаления.
// @Tags Messages
// @Accept json
// @Produce json
// @Param input body model.AcknowledgeRequest true "Идентификатор сообщения"
// @Success 200 {object} ResponseWithData{data=model.Message} "Подтверждённое сообщение"
// @Failure 400 {object} ResponseWithMessage "Пустой id"
// @Failure 404 {object} ResponseWithMessage "Сообщение не найдено"
// @Router /messages [patch]
func (h *MessageHandler) AcknowledgeMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	message, err := h.svc.Acknowledge(ctx, req.ID)
	if err != nil {
		h.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   message,
	})
}

// RemoveMessage
// @Summary Удалить сообщение.
// @Description Удаляет сообщение из inbox получателя и из хранилища. Повторное удаление возвращает 404,
// @Description клиент должен считать его уже обработанным.
// @Tags Messages
// @Produce json
// @Param messageId query string true "Идентификатор сообщения"
// @Param userId query string false "Отправитель или получатель"
// @Success 200 {object} ResponseWithMessage "Удалено"
// @Failure 400 {object} ResponseWithMessage "Нет messageId"
// @Failure 403 {object} ResponseWithMessage "userId не отправитель и не получатель"
// @Failure 404 {object} ResponseWithMessage "Сообщение не найдено"
// @Router /messages [delete]
func (h *MessageHandler) RemoveMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var query model.RemoveMessageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err)
		return
	}

	if err := h.svc.Remove(ctx, query.UserID, query.MessageID); err != nil {
		h.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "message removed",
	})
}
