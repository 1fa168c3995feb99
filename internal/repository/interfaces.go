package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cryptex/internal/domain"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error)

	// SelectStale returns pending transactions with no recorded payment
	// activity created before the cutoff.
	SelectStale(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error)

	// CancelIfPending conditionally transitions status to cancelled,
	// touching only the status column. It reports false when another
	// writer already moved the transaction out of pending.
	CancelIfPending(ctx context.Context, id uuid.UUID) (bool, error)
}
