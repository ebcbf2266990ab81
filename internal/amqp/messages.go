package amqp

import (
	"encoding/json"
	"time"
)

// InvoicePaidMessage announces a settled invoice. It carries identifiers
// only; the worker loads whatever else it needs from the database.
type InvoicePaidMessage struct {
	InvoiceID   int64     `json:"invoice_id"`
	OwnerID     string    `json:"owner_id"`
	Month       string    `json:"month"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewInvoicePaidMessage(invoiceID int64, ownerID, month string, amountCents int64) *InvoicePaidMessage {
	return &InvoicePaidMessage{
		InvoiceID:   invoiceID,
		OwnerID:     ownerID,
		Month:       month,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

func (m *InvoicePaidMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InvoicePaidMessageFromJSON(data []byte) (*InvoicePaidMessage, error) {
	var msg InvoicePaidMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
