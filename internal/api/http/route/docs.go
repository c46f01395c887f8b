package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func RegisterDocs(g *gin.RouterGroup) {
	g.GET("", func(c *gin.Context) {
		c.Redirect(http.StatusFound, c.Request.URL.Path+"/swagger/index.html")
	})

	g.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.DocExpansion("list"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))
}
