package middleware

import (
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"catalogsync/internal/logger"

	"github.com/gin-gonic/gin"
)

func Recovery(logger *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(error); ok && brokenConnection(err) {
			c.Abort()
			return
		}

		if gin.IsDebugging() {
			httpRequest, _ := httputil.DumpRequest(c.Request, false)
			logger.Error("[Recovery] panic recovered:\n%s\n%v\n%s", string(httpRequest), recovered, string(debug.Stack()))
		} else {
			logger.Error("[Recovery] panic recovered on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		}
		c.String(http.StatusInternalServerError, "Internal Server Error")
		c.Abort()
	})
}

// brokenConnection reports client disconnects, which are not worth a 500.
func brokenConnection(err error) bool {
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
