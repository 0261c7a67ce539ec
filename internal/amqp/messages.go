package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeKind tells consumers what happened to the ledger entry.
type ChangeKind string

const (
	ChangeUpsert   ChangeKind = "upsert"
	ChangeDelete   ChangeKind = "delete"
	ChangeCategory ChangeKind = "category"
)

// LedgerChangedMessage is the lightweight invalidation event published
// after every mutation. It carries only the entry id and the kind of
// change; consumers refetch whatever they need from the store.
type LedgerChangedMessage struct {
	ID        string     `json:"id"`
	Kind      ChangeKind `json:"kind"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewLedgerChangedMessage(id string, kind ChangeKind) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        id,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) Validate() error {
	switch m.Kind {
	case ChangeUpsert, ChangeDelete, ChangeCategory:
	default:
		return fmt.Errorf("unknown change kind %q", m.Kind)
	}
	return nil
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
