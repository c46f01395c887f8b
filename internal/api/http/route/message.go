package route

import (
	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	SendMessage(c *gin.Context)
	GetMessages(c *gin.Context)
	AcknowledgeMessage(c *gin.Context)
	RemoveMessage(c *gin.Context)
}

func RegisterMessages(g *gin.RouterGroup, h MessageHandler, sendMiddleware ...gin.HandlerFunc) {
	g.POST("", append(sendMiddleware, h.SendMessage)...)
	g.GET("", h.GetMessages)
	g.PATCH("", h.AcknowledgeMessage)
	g.DELETE("", h.RemoveMessage)
}
