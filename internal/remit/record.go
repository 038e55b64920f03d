package remit

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Fields returns the record as a canonical-JSON-ready object.
// The amount is carried as a decimal string so 128-bit values are exact.
func (r Record) Fields() map[string]any {
	return map[string]any{
		"amount":    r.Amount.String(),
		"currency":  string(r.Currency),
		"recipient": string(r.Recipient),
		"sender":    string(r.Sender),
		"status":    r.Status.String(),
		"timestamp": r.Timestamp,
		"tx_id":     r.ID,
	}
}

// MarshalCanonical encodes the record in its persisted form.
func (r Record) MarshalCanonical() ([]byte, error) {
	data, err := MarshalCanonical(r.Fields())
	if err != nil {
		return nil, fmt.Errorf("marshal record %d: %w", r.ID, err)
	}
	return data, nil
}

// MarshalJSON implements json.Marshaler using the canonical encoding.
func (r Record) MarshalJSON() ([]byte, error) {
	return r.MarshalCanonical()
}

// recordJSON mirrors the persisted shape. Integers are read through
// json.Number to keep the full uint64 range.
type recordJSON struct {
	TxID      json.Number `json:"tx_id"`
	Sender    string      `json:"sender"`
	Recipient string      `json:"recipient"`
	Amount    string      `json:"amount"`
	Currency  string      `json:"currency"`
	Timestamp json.Number `json:"timestamp"`
	Status    string      `json:"status"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}

	id, err := strconv.ParseUint(raw.TxID.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("unmarshal record: tx_id: %w", err)
	}
	ts, err := strconv.ParseUint(raw.Timestamp.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("unmarshal record %d: timestamp: %w", id, err)
	}
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return fmt.Errorf("unmarshal record %d: amount: %w", id, err)
	}
	status, err := ParseStatus(raw.Status)
	if err != nil {
		return fmt.Errorf("unmarshal record %d: %w", id, err)
	}

	*r = Record{
		ID:        id,
		Sender:    Address(raw.Sender),
		Recipient: Address(raw.Recipient),
		Amount:    amount,
		Currency:  Currency(raw.Currency),
		Timestamp: ts,
		Status:    status,
	}
	return nil
}

// UnmarshalRecord decodes a record from its persisted form.
func UnmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}
