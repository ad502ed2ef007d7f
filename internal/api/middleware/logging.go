package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// LogApi writes one access line per request. Query strings are left out
// because connection tokens travel there.
func LogApi() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: formatAccessLine,
		SkipPaths: []string{"/healthz"},
	})
}

func formatAccessLine(param gin.LogFormatterParams) string {
	path := param.Request.URL.Path
	return fmt.Sprintf("[%s] | %s | %d | %s | %s | %s | %s | %s | %s\n",
		param.TimeStamp.Format("2006-01-02 15:04:05"),
		param.ClientIP,
		param.StatusCode,
		param.Method,
		path,
		param.Request.UserAgent(),
		param.ErrorMessage,
		param.Latency,
		param.Request.Proto,
	)
}
