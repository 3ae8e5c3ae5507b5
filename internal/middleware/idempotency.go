package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	replayTTL   = 24 * time.Hour
	inFlightTTL = 30 * time.Second
)

// inFlightMarker is stored while the first request holding a key runs.
var inFlightMarker = []byte(`{"in_flight":true}`)

// storedReply is a finished response kept for replay.
type storedReply struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type,omitempty"`
	Body        json.RawMessage `json:"body"`
	InFlight    bool            `json:"in_flight,omitempty"`
}

// captureWriter tees the response body so it can be stored.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// IdempotencyMiddleware replays the stored response of a mutating request
// retried with the same Idempotency-Key, so a double-submitted booking or
// slip upload runs once. Keys are scoped to the actor set by
// IdentityMiddleware. A retry that arrives while the first attempt is still
// running gets 409. A nil client or a redis failure disables replay.
func IdempotencyMiddleware(client redis.Cmdable, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if client == nil || key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyKey(c, key)

		reserved, err := client.SetNX(ctx, storeKey, inFlightMarker, inFlightTTL).Result()
		if err != nil {
			logger.Warn("idempotency store unavailable", zap.String("key", storeKey), zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			replay(c, client, storeKey, logger)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		// Conflicts and validation failures replay too; server errors stay retryable.
		if status >= http.StatusInternalServerError {
			if err := client.Del(ctx, storeKey).Err(); err != nil {
				logger.Warn("failed to release idempotency key", zap.String("key", storeKey), zap.Error(err))
			}
			return
		}
		reply := storedReply{
			StatusCode:  status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}
		if err := storeReply(ctx, client, storeKey, &reply); err != nil {
			logger.Warn("failed to store idempotent reply", zap.String("key", storeKey), zap.Error(err))
		}
	}
}

// replay answers a retried request from the stored reply.
func replay(c *gin.Context, client redis.Cmdable, storeKey string, logger *zap.Logger) {
	reply, err := loadReply(c.Request.Context(), client, storeKey)
	switch {
	case errors.Is(err, redis.Nil):
		// Expired between SETNX and GET; run the request without replay.
		c.Next()
		return
	case err != nil:
		logger.Warn("failed to load idempotent reply", zap.String("key", storeKey), zap.Error(err))
		c.Next()
		return
	}

	if reply.InFlight {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is still being processed"})
		return
	}

	contentType := reply.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Header(replayedHeader, "true")
	c.Data(reply.StatusCode, contentType, reply.Body)
	c.Abort()
}

func idempotencyKey(c *gin.Context, key string) string {
	scope := c.Request.Method + " " + c.FullPath()
	if actor, ok := ActorFrom(c); ok {
		scope = actor.String() + ":" + scope
	}
	return "idempotency:" + scope + ":" + key
}

func loadReply(ctx context.Context, client redis.Cmdable, key string) (*storedReply, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var reply storedReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func storeReply(ctx context.Context, client redis.Cmdable, key string, reply *storedReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, replayTTL).Err()
}
