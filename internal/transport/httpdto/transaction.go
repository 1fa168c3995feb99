package httpdto

import (
	"time"

	"cryptex/internal/domain"
)

type CreateTransactionRequest struct {
	BuyerID  string `json:"buyer_id" binding:"required,uuid"`
	VendorID string `json:"vendor_id" binding:"required,uuid"`
	AssetID  string `json:"asset_id" binding:"required,uuid"`
	Quantity string `json:"quantity" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

type TransactionResponse struct {
	ID               string    `json:"id"`
	BuyerID          string    `json:"buyer_id"`
	VendorID         string    `json:"vendor_id"`
	AssetID          string    `json:"asset_id"`
	Quantity         string    `json:"quantity"`
	Amount           string    `json:"amount"`
	ValuePaidInNaira *string   `json:"value_paid_in_naira"`
	TransactionHash  *string   `json:"transaction_hash"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func FromTransaction(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID.String(),
		BuyerID:          t.BuyerID.String(),
		VendorID:         t.VendorID.String(),
		AssetID:          t.AssetID.String(),
		Quantity:         t.Quantity,
		Amount:           t.Amount,
		ValuePaidInNaira: t.ValuePaidInNaira,
		TransactionHash:  t.TransactionHash,
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}
