package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a single asset trade between a buyer and a vendor.
// Quantity and money amounts are carried as numeric strings so no
// precision is lost between the database and the wire.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	BuyerID          uuid.UUID         `json:"buyer_id"`
	VendorID         uuid.UUID         `json:"vendor_id"`
	AssetID          uuid.UUID         `json:"asset_id"`
	Quantity         string            `json:"quantity"`
	Amount           string            `json:"amount"`
	ValuePaidInNaira *string           `json:"value_paid_in_naira"`
	TransactionHash  *string           `json:"transaction_hash"`
	Status           TransactionStatus `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Untouched reports whether the trade has seen no payment activity:
// no on-chain hash and no fiat value recorded.
func (t Transaction) Untouched() bool {
	return t.TransactionHash == nil && t.ValuePaidInNaira == nil
}
