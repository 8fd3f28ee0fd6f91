package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// EntryEventMessage is the lightweight queue payload for mirroring a
// ledger entry to the external backup sheet. It carries only the entry
// id and what happened; the worker fetches the full row from storage.
type EntryEventMessage struct {
	EntryID   int64     `json:"entry_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryEventMessage(entryID int64, action string) *EntryEventMessage {
	return &EntryEventMessage{
		EntryID:   entryID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *EntryEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryEventMessageFromJSON(data []byte) (*EntryEventMessage, error) {
	var msg EntryEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Action != ActionCreated && msg.Action != ActionDeleted {
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
