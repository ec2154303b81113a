package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage notifies the worker that the ledger mutated. It carries only
// the operation and record id; consumers reload state from the store.
type ChangeMessage struct {
	Op        string    `json:"op"` // add, update, remove
	RecordID  string    `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(op, recordID string) *ChangeMessage {
	return &ChangeMessage{
		Op:        op,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
