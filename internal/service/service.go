// Package service implements the four ledger-state-transition modules:
// credit registry, marketplace, verification engine and retirement ledger.
// Every operation runs inside one StateTx: all preconditions are checked
// before any write, and a typed failure rolls the whole call back.
package service

import (
	"fmt"

	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/core/ports"

	"carbon-credit-ledger/pkg/apperror"
)

// historyEntry builds one trail event stamped with the call's ledger time.
func historyEntry(txc *domain.TxContext, action, detail string) domain.HistoryEntry {
	return domain.HistoryEntry{
		Action: action,
		Actor:  txc.Sender,
		Time:   txc.LedgerTime,
		TxID:   txc.TxID,
		Detail: detail,
	}
}

// activityEntry builds one audit-trail record for the call.
func activityEntry(txc *domain.TxContext, action, subject string, detail map[string]string) *domain.ActivityEntry {
	return &domain.ActivityEntry{
		ID:      txc.NewID("activity"),
		Action:  action,
		Actor:   txc.Sender,
		Subject: subject,
		Time:    txc.LedgerTime,
		TxID:    txc.TxID,
		Detail:  detail,
	}
}

// requireAdmin loads the governance record and checks the sender against it.
func requireAdmin(tx ports.StateTx, txc *domain.TxContext) error {
	cfg, err := tx.Governance().Get()
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("load governance config: %w", err))
	}
	if cfg == nil || !cfg.IsAdmin(txc.Sender) {
		return apperror.Unauthorized("sender is not a governance admin")
	}
	return nil
}

// lenBetween validates a required string field's length range.
func lenBetween(value string, min, max int) bool {
	return len(value) >= min && len(value) <= max
}
