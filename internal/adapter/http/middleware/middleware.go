package middleware

import (
	"net/http"
	"strconv"
	"time"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/pkg/apperror"
	"carbon-credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// Headers supplied by the host dispatcher on every module call.
	HeaderSender = "X-Ledger-Sender"
	HeaderTxID   = "X-Ledger-Tx-Id"
	HeaderTime   = "X-Ledger-Time"

	// Context keys
	CtxTxContext = "tx_context"
)

// TxContext extracts the host call context from the ledger headers. Every
// module route requires all three: the acting principal, the unique
// transaction id and the logical timestamp. The core never reads wall-clock
// time, so a missing or malformed timestamp rejects the call outright.
func TxContext(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sender := c.GetHeader(HeaderSender)
		txID := c.GetHeader(HeaderTxID)
		timeStr := c.GetHeader(HeaderTime)

		if sender == "" || txID == "" || timeStr == "" {
			response.Error(c, apperror.Validation("X-Ledger-Sender, X-Ledger-Tx-Id and X-Ledger-Time headers are required"))
			c.Abort()
			return
		}

		ledgerTime, err := strconv.ParseInt(timeStr, 10, 64)
		if err != nil || ledgerTime < 0 {
			response.Error(c, apperror.Validation("X-Ledger-Time must be a unix timestamp in seconds"))
			c.Abort()
			return
		}

		c.Set(CtxTxContext, domain.NewTxContext(sender, txID, ledgerTime))
		c.Next()
	}
}

// GetTxContext reads the TxContext set by the middleware.
func GetTxContext(c *gin.Context) (*domain.TxContext, bool) {
	v, ok := c.Get(CtxTxContext)
	if !ok {
		return nil, false
	}
	txc, ok := v.(*domain.TxContext)
	return txc, ok
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("tx_id", c.GetHeader(HeaderTxID)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
