package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// idNamespace seeds the SHA1-derived ids. Fixed so that replaying the same
// host transaction yields the same ids on every node.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("carbon-credit-ledger"))

// TxContext carries the host-supplied execution context for one call.
// LedgerTime is the host's deterministic logical clock; the core never reads
// wall-clock time.
type TxContext struct {
	Sender     string
	TxID       string
	LedgerTime int64

	seq int
}

// NewTxContext creates a context for one module call.
func NewTxContext(sender, txID string, ledgerTime int64) *TxContext {
	return &TxContext{Sender: sender, TxID: txID, LedgerTime: ledgerTime}
}

// NewID derives a deterministic record id from the host transaction id, a
// record-kind tag and a per-call sequence number. Two calls with the same
// TxID produce the same id stream.
func (tc *TxContext) NewID(kind string) string {
	tc.seq++
	name := fmt.Sprintf("%s:%s:%d", tc.TxID, kind, tc.seq)
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}
