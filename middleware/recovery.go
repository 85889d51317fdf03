package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 response. A panic caused by the
// client hanging up mid-download is logged without a stack and gets no body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log := logger.WithContext(c.Request.Context()).With(
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"route", c.FullPath(),
			)

			if err, ok := rec.(error); ok && clientGone(err) {
				log.Warn("client disconnected", "error", err)
				c.Abort()
				return
			}

			log.Error("panic recovered", "error", rec, "stack", string(debug.Stack()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": GetRequestID(c),
			})
		}()

		c.Next()
	}
}

func clientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
