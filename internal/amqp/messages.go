package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by a LedgerEvent.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// LedgerEvent announces a committed change to one ledger record.
// Amount and Date are empty for deletions.
type LedgerEvent struct {
	Kind   string    `json:"kind"` // expense, repayment or adjustment
	Op     string    `json:"op"`
	ID     string    `json:"id"`
	Amount string    `json:"amount,omitempty"`
	Date   string    `json:"date,omitempty"`
	At     time.Time `json:"at"`
}

// NewLedgerEvent stamps an event with the current time.
func NewLedgerEvent(kind, op, id, amount, date string) *LedgerEvent {
	return &LedgerEvent{
		Kind:   kind,
		Op:     op,
		ID:     id,
		Amount: amount,
		Date:   date,
		At:     time.Now().UTC(),
	}
}

// RoutingKey is "<kind>.<op>".
func (e *LedgerEvent) RoutingKey() string {
	return e.Kind + "." + e.Op
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity-checks an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Kind == "" || e.Op == "" || e.ID == "" {
		return nil, fmt.Errorf("incomplete ledger event: kind=%q op=%q id=%q", e.Kind, e.Op, e.ID)
	}
	return &e, nil
}
