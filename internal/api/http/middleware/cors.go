package middleware

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"relay-back/internal/config"
)

// Headers browsers must be able to send and read for retries and rate limit
// handling, regardless of what the config lists.
var (
	relayRequestHeaders = []string{"Content-Type", "Idempotency-Key"}
	relayExposedHeaders = []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
)

func CORS(cfg config.CORS) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	corsConfig := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     withHeaders(cfg.AllowHeaders, relayRequestHeaders),
		ExposeHeaders:    withHeaders(cfg.ExposeHeaders, relayExposedHeaders),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
		AllowWebSockets:  cfg.AllowWebSockets,
	}

	switch {
	case len(cfg.AllowOrigins) > 0 && !cfg.AllowAllOrigins:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	default:
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}

	return cors.New(corsConfig)
}

func withHeaders(configured, required []string) []string {
	headers := slices.Clone(configured)

	for _, header := range required {
		if !slices.Contains(headers, header) {
			headers = append(headers, header)
		}
	}

	return headers
}
