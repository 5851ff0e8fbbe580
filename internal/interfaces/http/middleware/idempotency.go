package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"device-license.backend/internal/interfaces/http/response"
	"device-license.backend/pkg/logger"
	"device-license.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// LockDuration is the time we hold the lock while processing
	LockDuration = 30 * time.Second
	// RetentionDuration is how long we keep the response
	RetentionDuration = 24 * time.Hour

	idempotencyProcessing   = "processing"
	codeIdempotencyConflict = "ERR_IDEMPOTENCY_CONFLICT"
)

var (
	redisGet       = redis.Get
	redisSet       = redis.Set
	redisSetNX     = redis.SetNX
	redisDel       = redis.Del
	redisAvailable = func() bool { return redis.GetClient() != nil }
)

// storedResponse is what a completed request leaves behind for replays
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response of a request already
// processed under the same Idempotency-Key, scoped per admin and route.
// Without redis or without the header the request runs normally.
func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || !redisAvailable() {
			c.Next()
			return
		}

		adminID, _ := GetAdminID(c)
		storageKey := fmt.Sprintf("idempotency:%s:%s:%s:%s", adminID, c.Request.Method, c.FullPath(), key)
		ctx := c.Request.Context()

		val, err := redisGet(ctx, storageKey)
		switch {
		case err == nil && val == idempotencyProcessing:
			abortInProgress(c)
			return
		case err == nil:
			var stored storedResponse
			if jsonErr := json.Unmarshal([]byte(val), &stored); jsonErr == nil {
				c.Header("X-Idempotency-Hit", "true")
				c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
				c.Abort()
				return
			}
			logger.Warn(ctx, "Discarding unreadable idempotency record", zap.String("key", storageKey))
			_ = redisDel(ctx, storageKey)
		case !errors.Is(err, goredis.Nil):
			logger.Warn(ctx, "Idempotency store unavailable, processing without it", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := redisSetNX(ctx, storageKey, idempotencyProcessing, LockDuration)
		if err != nil || !acquired {
			abortInProgress(c)
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			body := w.body.Bytes()
			if len(body) == 0 {
				body = []byte("null")
			}
			payload, _ := json.Marshal(storedResponse{Status: status, Body: body})
			if err := redisSet(ctx, storageKey, payload, RetentionDuration); err != nil {
				logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
			}
			return
		}
		// failed requests may be retried with the same key
		_ = redisDel(ctx, storageKey)
	}
}

func abortInProgress(c *gin.Context) {
	response.ErrorWithError(c, http.StatusConflict, codeIdempotencyConflict, "request already in progress")
	c.Abort()
}
