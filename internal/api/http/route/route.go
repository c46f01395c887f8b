package route

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"relay-back/internal/api/http/handler"
	"relay-back/internal/api/http/middleware"
	"relay-back/internal/config"
)

// Options carries the optional pieces of the router. Nil fields switch the
// matching feature off.
type Options struct {
	RateLimiter     middleware.RateLimiter
	MetricsObserver MetricsObserver
	MetricsHandler  http.Handler
}

type MetricsObserver interface {
	middleware.RequestObserver
	middleware.RateLimitObserver
}

func SetupRouter(
	log *zap.Logger,
	cfg *config.Config,
	healthHdl HealthHandler,
	messageHdl MessageHandler,
	inboxHdl InboxHandler,
	userHdl UserHandler,
	opts Options,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.Use(gin.Recovery())

	// middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestTimeout(cfg.HTTPServer.Timeout.Request))
	router.Use(middleware.CORS(cfg.CORS))

	if opts.MetricsObserver != nil {
		router.Use(middleware.Metrics(opts.MetricsObserver))
	}

	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.NoMethod)
	router.NoRoute(handler.NoRoute)

	if opts.MetricsHandler != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(opts.MetricsHandler))
	}

	basePath := router.Group(cfg.BasePath)

	docsPath := basePath.Group("/docs")
	RegisterDocs(docsPath)

	healthPath := basePath.Group("/health")
	RegisterHealth(healthPath, healthHdl)

	var sendLimit []gin.HandlerFunc
	if opts.RateLimiter != nil {
		var observer middleware.RateLimitObserver
		if opts.MetricsObserver != nil {
			observer = opts.MetricsObserver
		}

		sendLimit = append(sendLimit, middleware.RateLimit(log, opts.RateLimiter, observer))
	}

	messagePath := basePath.Group("/messages")
	RegisterMessages(messagePath, messageHdl, sendLimit...)

	inboxPath := basePath.Group("/inbox")
	RegisterInbox(inboxPath, inboxHdl)

	userPath := basePath.Group("/users")
	RegisterUsers(userPath, userHdl)

	return router
}
