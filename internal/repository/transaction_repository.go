package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cryptex/internal/domain"
	cryptex_errors "cryptex/pkg/errors"
)

type PostgresTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &PostgresTransactionRepository{pool: pool}
}

const transactionColumns = `id, buyer_id, vendor_id, asset_id,
	quantity::text, amount::text, value_paid_in_naira::text,
	transaction_hash, status, created_at, updated_at`

func (r *PostgresTransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = domain.StatusPending
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, buyer_id, vendor_id, asset_id, quantity, amount, status)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)
		RETURNING created_at, updated_at`,
		t.ID, t.BuyerID, t.VendorID, t.AssetID, t.Quantity, t.Amount, t.Status,
	)
	return row.Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *PostgresTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1`,
		id,
	)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Transaction{}, cryptex_errors.ErrNotFound
		}
		return domain.Transaction{}, err
	}
	return t, nil
}

func (r *PostgresTransactionRepository) SelectStale(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE status = 'pending'
		  AND transaction_hash IS NULL
		  AND value_paid_in_naira IS NULL
		  AND created_at < $1
		ORDER BY created_at`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		stale = append(stale, t)
	}
	return stale, rows.Err()
}

func (r *PostgresTransactionRepository) CancelIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	// Compare-and-swap on status so concurrent cancellation attempts
	// (reaper vs user API) produce exactly one transition. Only the
	// status column is written; concurrent edits to other fields stay
	// untouched.
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.BuyerID, &t.VendorID, &t.AssetID,
		&t.Quantity, &t.Amount, &t.ValuePaidInNaira,
		&t.TransactionHash, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}
