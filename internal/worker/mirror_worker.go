// Package worker consumes transaction events and mirrors them to the
// audit spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/events"
	"ledger/internal/mirror"
)

// MirrorWorker appends added transactions to the mirror sheet. Removals are
// acknowledged but left in the sheet; the mirror is an append-only trail.
type MirrorWorker struct {
	appender mirror.TransactionAppender
}

func NewMirrorWorker(appender mirror.TransactionAppender) *MirrorWorker {
	return &MirrorWorker{appender: appender}
}

// HandleEvent processes a single transaction event from the queue.
func (w *MirrorWorker) HandleEvent(ctx context.Context, evt *events.TransactionEvent) error {
	switch evt.Op {
	case events.OpAdd:
		ref, err := w.appender.Append(ctx, evt.Transaction)
		if err != nil {
			return fmt.Errorf("mirror transaction %s: %w", evt.Transaction.ID, err)
		}
		slog.InfoContext(ctx, "Mirrored transaction",
			"transaction_id", evt.Transaction.ID,
			"range", ref)
		return nil
	case events.OpRemove:
		slog.InfoContext(ctx, "Skipping removal, mirror is append-only",
			"transaction_id", evt.Transaction.ID)
		return nil
	default:
		return fmt.Errorf("unknown event op: %s", evt.Op)
	}
}
