package amqp

import (
	"encoding/json"
	"time"
)

// TransactionExportMessage asks the export worker to mirror one ledger
// transaction to the statement sheet. It carries only the id; the
// worker reads the current row from the database, so a message that
// arrives after a later edit exports the newest state.
type TransactionExportMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionExportMessage(id string) *TransactionExportMessage {
	return &TransactionExportMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
