package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger replaces gin's default logger.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Debug("request completed", fields...)
		}
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		logger.Error("panic recovered",
			zap.Any("error", err),
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// untrackedPrefixes are never counted as page views.
var untrackedPrefixes = []string{"/static/", "/admin", "/favicon", "/privacy", "/healthz"}

// trackVisitors records page views with hashed IPs. Requests carrying
// "DNT: 1" are not recorded.
func (s *Server) trackVisitors() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		s.tracker.Track(c.ClientIP(), c.GetHeader("User-Agent"), path)
		c.Next()
	}
}

// visitTracker writes visits in the background so page rendering never
// waits on the database.
type visitTracker struct {
	store  Store
	logger *zap.Logger
	wg     sync.WaitGroup
}

func (t *visitTracker) Track(ip, userAgent, path string) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.store.RecordVisit(ctx, ip, userAgent, path); err != nil {
			t.logger.Error("error recording visitor", zap.Error(err))
		}
	}()
}

func (t *visitTracker) Wait() {
	t.wg.Wait()
}
