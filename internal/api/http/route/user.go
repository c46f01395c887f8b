package route

import (
	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	CreateUser(c *gin.Context)
	ListUsers(c *gin.Context)
}

func RegisterUsers(g *gin.RouterGroup, h UserHandler) {
	g.POST("", h.CreateUser)
	g.GET("", h.ListUsers)
}
