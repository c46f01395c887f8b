package route

import (
	"github.com/gin-gonic/gin"
)

type InboxHandler interface {
	GetInbox(c *gin.Context)
	ClearInbox(c *gin.Context)
	StreamInbox(c *gin.Context)
}

func RegisterInbox(g *gin.RouterGroup, h InboxHandler) {
	g.GET("", h.GetInbox)
	g.DELETE("", h.ClearInbox)
	g.GET("/ws", h.StreamInbox)
}
