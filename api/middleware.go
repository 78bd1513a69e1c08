package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/happyflights/flightbooking/internal/auth"
	"github.com/happyflights/flightbooking/internal/cache"
	"github.com/happyflights/flightbooking/pkg/logger"
	"go.uber.org/zap"
)

const (
	identityKey          = "identity"
	idempotencyHeader    = "Idempotency-Key"
	legacyTokenHeader    = "x-auth-token"
	maxIdempotencyKeyLen = 128
)

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		log := logger.WithComponent("http")
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// Timeout bounds the request context.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// RequireAdmin accepts a bearer token or the legacy x-auth-token header and
// lets the request through only for admin identities.
func RequireAdmin(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "No token, authorization denied"})
			return
		}
		identity, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "Token is not valid"})
			return
		}
		if !identity.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Message: "Not authorized as admin"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(c.GetHeader(legacyTokenHeader))
}

type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (*cache.StoredResponse, error)
	Complete(ctx context.Context, key string, resp cache.StoredResponse) error
	Release(ctx context.Context, key string) error
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Server errors release the key so the client can retry. When the store is
// unreachable the request is served without idempotency.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: "Idempotency-Key is too long"})
			return
		}

		log := logger.WithComponent("idempotency").With(zap.String("key", key))
		ctx := c.Request.Context()

		stored, err := store.Reserve(ctx, key)
		switch {
		case errors.Is(err, cache.ErrInFlight):
			c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Message: "A request with this Idempotency-Key is already in progress"})
			return
		case err != nil:
			log.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		case stored != nil:
			c.Header("Idempotent-Replayed", "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			c.Abort()
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() >= http.StatusInternalServerError {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("release idempotency key failed", zap.Error(err))
			}
			return
		}
		resp := cache.StoredResponse{Status: w.Status()}
		if w.body.Len() > 0 {
			resp.Body = w.body.Bytes()
		}
		if err := store.Complete(context.WithoutCancel(ctx), key, resp); err != nil {
			log.Warn("store idempotent response failed", zap.Error(err))
		}
	}
}
