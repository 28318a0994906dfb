package events

import (
	"encoding/json"
	"time"

	"ledger/internal/core"
)

const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// TransactionEvent announces a local ledger mutation to out-of-process
// consumers. Add events carry the full transaction; remove events carry
// only the id.
type TransactionEvent struct {
	Op          string           `json:"op"`
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

func NewAddEvent(txn core.Transaction) *TransactionEvent {
	return &TransactionEvent{Op: OpAdd, Transaction: txn, Timestamp: time.Now()}
}

func NewRemoveEvent(id string) *TransactionEvent {
	return &TransactionEvent{
		Op:          OpRemove,
		Transaction: core.Transaction{ID: id},
		Timestamp:   time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
