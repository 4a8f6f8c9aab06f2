package models

import "github.com/shopspring/decimal"

// PaymentEvent is an on-ledger transfer observed by the watcher.
type PaymentEvent struct {
	TxRef      string          `json:"tx_ref"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Value      decimal.Decimal `json:"value"`
	ObservedAt Timestamp       `json:"observed_at"`
	BlockRef   uint64          `json:"block_ref"`
}
