// Package response writes the JSON envelope every endpoint returns and converts handler errors into it.
package response

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/logger"
	"civic-connect/backend/internal/platform/apperr"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Pagination *listing.Pagination `json:"pagination,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// OK writes 200 with data.
func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Paginated writes 200 with a page of rows and its pagination block.
func Paginated[T any](c *gin.Context, page *listing.Page[T]) {
	rows := page.Rows
	if rows == nil {
		rows = []T{}
	}
	p := page.Pagination
	c.JSON(http.StatusOK, Envelope{Success: true, Data: rows, Pagination: &p})
}

// Fail writes a failure envelope with status and message.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// ErrorHandler converts the last error attached with c.Error into the envelope.
// 5xx responses are logged and reported to Sentry; detail is included only when debug is true.
func ErrorHandler(log *zap.Logger, debug bool) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		writeError(c, log, debug, err)
	}
}

// Recovery turns panics into a 500 envelope instead of dropping the connection.
func Recovery(log *zap.Logger, debug bool) gin.HandlerFunc {
	log = logger.OrNop(log)
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", recovered)
		}
		writeError(c, log, debug, err)
	})
}

// NoRoute answers unknown paths with a JSON 404.
func NoRoute(c *gin.Context) {
	Fail(c, http.StatusNotFound, "Route not found")
}

func writeError(c *gin.Context, log *zap.Logger, debug bool, err error) {
	ae := apperr.As(err)
	status := ae.Kind.Status()
	body := Envelope{Success: false, Message: ae.Message}
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("kind", ae.Kind.String()),
			zap.Error(err),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else if sentry.CurrentHub().Client() != nil {
			sentry.CaptureException(err)
		}
	}
	if debug && ae.Err != nil {
		body.Error = ae.Err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
