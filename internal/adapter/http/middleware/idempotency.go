package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"carbon-credit-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// replayTTL bounds how long a transaction outcome stays replayable.
const replayTTL = 24 * time.Hour

// replayRecord is the cached outcome of one executed transaction.
type replayRecord struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bodyCapture tees the response body so the outcome can be cached after the
// handler runs.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the recorded outcome for a transaction id the host has
// already dispatched, instead of re-executing the call. Cache failures
// degrade to executing the call; they never reject it.
func Idempotency(cache ports.IdempotencyCache, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		txID := c.GetHeader(HeaderTxID)
		if txID == "" {
			c.Next()
			return
		}

		cached, err := cache.Get(c.Request.Context(), txID)
		if err != nil {
			log.Warn().Err(err).Str("tx_id", txID).Msg("replay cache read failed, executing call")
		} else if cached != nil {
			var rec replayRecord
			if err := json.Unmarshal(cached, &rec); err == nil {
				c.Header("X-Ledger-Replayed", "true")
				c.Data(rec.Status, "application/json; charset=utf-8", rec.Body)
				c.Abort()
				return
			}
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		// Record only settled outcomes; transient 5xx failures may succeed
		// on redelivery.
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		raw, err := json.Marshal(replayRecord{Status: status, Body: capture.buf.Bytes()})
		if err != nil {
			return
		}
		if err := cache.Set(c.Request.Context(), txID, raw, replayTTL); err != nil {
			log.Warn().Err(err).Str("tx_id", txID).Msg("replay cache write failed")
		}
	}
}
