package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"relay-back/internal/model"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsWriteWait  = 10 * time.Second
)

const (
	FrameSnapshot = "snapshot"
	FrameEvent    = "event"
	FrameDone     = "done"
	FrameError    = "error"
)

type InboxService interface {
	Fetch(ctx context.Context, userID string) ([]model.Message, error)
	ClearInbox(ctx context.Context, userID string, purge bool) ([]string, error)
	Subscribe(recipient string) (<-chan model.MessageEvent, func(), error)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSFrame is one websocket message of the inbox stream: a snapshot of the
// pending inbox first, then one event frame per relay transition.
type WSFrame struct {
	Type  string              `json:"type"`
	Data  []model.Message     `json:"data,omitempty"`
	Event *model.MessageEvent `json:"event,omitempty"`
	Err   string              `json:"error,omitempty"`
}

type InboxHandler struct {
	BaseHandler

	log *zap.Logger
	svc InboxService
}

func NewInboxHandler(log *zap.Logger, svc InboxService) *InboxHandler {
	return &InboxHandler{
		BaseHandler: BaseHandler{},
		log:         log,
		svc:         svc,
	}
}

// GetInbox
// @Summary Получить inbox.
// @Description Возвращает ожидающие сообщения пользователя в порядке постановки. Ничего не меняет,
// @Description повторный запрос вернёт те же сообщения до их удаления.
// @Tags Inbox
// @Produce json
// @Param userId query string true "Идентификатор получателя"
// @Success 200 {object} ResponseWithData{data=model.MessagesResponse} "Ожидающие сообщения"
// @Failure 400 {object} ResponseWithMessage "Нет userId"
// @Router /inbox [get]
func (h *InboxHandler) GetInbox(c *gin.Context) {
	ctx := c.Request.Context()

	var query model.InboxQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err)
		return
	}

	messages, err := h.svc.Fetch(ctx, query.UserID)
	if err != nil {
		h.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   model.MessagesResponse{Messages: messages},
	})
}

// ClearInbox
// @Summary Очистить inbox.
// @Description Убирает все ожидающие записи пользователя. Сами сообщения остаются в хранилище,
// @Description если не передан purge=true. С purge=true удаляются все сообщения пользователя, в том числе оставшиеся после прошлой очистки.
// @Tags Inbox
// @Produce json
// @Param userId query string true "Идентификатор получателя"
// @Param purge query bool false "Удалить сообщения и из хранилища"
// @Success 200 {object} ResponseWithData{data=model.ClearInboxResponse} "Удалённые идентификаторы"
// @Failure 400 {object} ResponseWithMessage "Нет userId"
// @Router /inbox [delete]
func (h *InboxHandler) ClearInbox(c *gin.Context) {
	ctx := c.Request.Context()

	var query model.ClearInboxQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err)
		return
	}

	dropped, err := h.svc.ClearInbox(ctx, query.UserID, query.Purge)
	if err != nil {
		h.Abort(c, err)
		return
	}

	h.log.Info("Inbox cleared",
		zap.String("user_id", query.UserID),
		zap.Int("dropped", len(dropped)),
		zap.Bool("purge", query.Purge),
	)

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   model.ClearInboxResponse{Dropped: dropped},
	})
}

// StreamInbox
// @Summary Подписка на inbox по WebSocket.
// @Description Сначала присылает snapshot ожидающих сообщений, затем event на каждое изменение inbox.
// @Description При переполнении буфера события теряются, клиент должен перезапросить inbox.
// @Tags Inbox
// @Param userId query string true "Идентификатор получателя"
// @Produce application/json
// @Router /inbox/ws [get]
func (h *InboxHandler) StreamInbox(c *gin.Context) {
	var query model.InboxQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err)
		return
	}

	// Subscribe before the snapshot so no transition falls in between.
	events, cancel, err := h.svc.Subscribe(query.UserID)
	if err != nil {
		h.Abort(c, err)
		return
	}
	defer cancel()

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(frame WSFrame) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))

		if err := conn.WriteJSON(frame); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			return false
		}

		return true
	}

	// The request context is detached from a hijacked connection, so the
	// stream lives until the peer goes away or the relay closes.
	snapshot, err := h.svc.Fetch(context.Background(), query.UserID)
	if err != nil {
		send(WSFrame{Type: FrameError, Err: err.Error()})
		return
	}

	if !send(WSFrame{Type: FrameSnapshot, Data: snapshot}) {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				send(WSFrame{Type: FrameDone})
				return
			}

			if !send(WSFrame{Type: FrameEvent, Event: &event}) {
				return
			}
		}
	}
}
