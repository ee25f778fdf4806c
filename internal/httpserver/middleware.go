package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pharmacy-store/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxUser         = "user"
	ctxToken        = "token"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger emits one line per request, levelled by response status.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if u, ok := currentUser(c); ok {
			fields = append(fields, zap.String("user_id", u.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

func observeRequests(m httpObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// requireSession resolves the bearer token to a user and stores both in
// the gin context.
func requireSession(auth authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWith(c, http.StatusUnauthorized, "auth.unauthorized", "missing bearer token")
			return
		}
		user, err := auth.LookupByToken(c.Request.Context(), token)
		if err != nil {
			if isAuthFailure(err) {
				abortWith(c, http.StatusUnauthorized, "auth.unauthorized", "invalid or expired token")
				return
			}
			writeError(c, "user", err)
			return
		}
		c.Set(ctxUser, user)
		c.Set(ctxToken, token)
		c.Next()
	}
}

// requireAdmin must run after requireSession. The role is re-read so a
// demoted admin loses access without logging out.
func requireAdmin(guard adminGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "auth.unauthorized", "missing session")
			return
		}
		admin, err := guard.RequireAdmin(c.Request.Context(), u.ID)
		if err != nil {
			writeError(c, "user", err)
			return
		}
		c.Set(ctxUser, admin)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// userID is only called behind requireSession.
func userID(c *gin.Context) string {
	u, _ := currentUser(c)
	if u == nil {
		return ""
	}
	return u.ID
}

func isAuthFailure(err error) bool {
	return errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrUnauthorized)
}
