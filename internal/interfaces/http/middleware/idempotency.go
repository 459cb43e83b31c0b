package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockcore/backend/internal/infrastructure/cache"
)

// IdempotencyKeyHeader carries the client-chosen key that makes a
// mutating request safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// Idempotency returns a middleware that rejects replays of mutating
// requests. When a request carries an Idempotency-Key header the key is
// recorded in the store for the configured TTL; a second request with
// the same key within the TTL is answered with 409 without reaching the
// handler. Requests without the header pass through untouched.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		// Scope the key to method and path so the same key can be
		// reused across different endpoints.
		scoped := c.Request.Method + ":" + c.FullPath() + ":" + key

		fresh, err := store.MarkProcessed(c.Request.Context(), scoped, ttl)
		if err != nil {
			// Store failure must not block the request.
			c.Next()
			return
		}

		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_CONFLICT",
					"message": "Request with this idempotency key was already processed",
				},
			})
			return
		}

		c.Next()
	}
}
