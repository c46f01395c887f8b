package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"relay-back/internal/api/http/handler"
	"relay-back/internal/model"
)

const maxPeekBytes = 1 << 20

type RateLimiter interface {
	Take(ctx context.Context, key string) (model.RateDecision, error)
}

type RateLimitObserver interface {
	IncRateLimited()
}

// RateLimit spends one token of the sender's bucket per request. The sender
// is read from the JSON body, falling back to the client ip. A limiter
// failure lets the request through.
func RateLimit(log *zap.Logger, limiter RateLimiter, observer RateLimitObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rate_limit:" + senderKey(c)

		decision, err := limiter.Take(c.Request.Context(), key)
		if err != nil {
			log.Warn("Rate limiter unavailable, request allowed", zap.Error(err))
			c.Next()

			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))

		if !decision.Allowed {
			if observer != nil {
				observer.IncRateLimited()
			}

			c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.ResponseWithMessage{
				Status:  handler.StatusErr,
				Message: "too many requests, retry later",
			})

			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}

type peekedBody struct {
	io.Reader
	io.Closer
}

// senderKey peeks at the "from" field. The handler still reads the whole
// body: the peeked prefix is replayed in front of the unread rest. Bodies
// longer than maxPeekBytes are keyed by client ip.
func senderKey(c *gin.Context) string {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return c.ClientIP()
	}

	original := c.Request.Body

	prefix, err := io.ReadAll(io.LimitReader(original, maxPeekBytes+1))
	c.Request.Body = peekedBody{
		Reader: io.MultiReader(bytes.NewReader(prefix), original),
		Closer: original,
	}

	if err != nil || len(prefix) > maxPeekBytes {
		return c.ClientIP()
	}

	var peek struct {
		From string `json:"from"`
	}

	if err := json.Unmarshal(prefix, &peek); err != nil || peek.From == "" {
		return c.ClientIP()
	}

	return "user:" + peek.From
}
