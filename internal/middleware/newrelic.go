package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"go.uber.org/zap"
)

// ErrorReporter records errors attached with c.Error on the New Relic
// transaction started by nrgin and logs them. It must run after nrgin.
func ErrorReporter(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		txn := nrgin.Transaction(c)
		for _, err := range c.Errors {
			if txn != nil {
				txn.NoticeError(err.Err)
			}
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.Int("status", c.Writer.Status()),
				zap.Error(err.Err),
			)
		}
	}
}
