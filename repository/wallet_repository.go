package repository

import (
	"context"
	"errors"
	"fmt"

	"challenger/database"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `user_id, balance, total_deposited, total_withdrawn, created_at, updated_at`

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository with a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var wallet models.Wallet
	err := row.Scan(
		&wallet.UserID,
		&wallet.Balance,
		&wallet.TotalDeposited,
		&wallet.TotalWithdrawn,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetByUserID returns the user's wallet or nil if it does not exist yet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %s: %w", userID, err)
	}
	return wallet, nil
}

// EnsureExists lazily creates an empty wallet
func (r *WalletRepository) EnsureExists(ctx context.Context, userID uuid.UUID) error {
	query := `INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to create wallet for user %s: %w", userID, err)
	}
	return nil
}

// Debit subtracts amount in a single conditional statement so concurrent
// debits can never drive the balance negative. A nil wallet means the
// balance did not cover the amount.
func (r *WalletRepository) Debit(ctx context.Context, userID uuid.UUID, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	query := `
		UPDATE wallets
		SET balance = balance - $2
		WHERE user_id = $1 AND balance >= $2
		RETURNING ` + walletColumns

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, userID, amount))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit wallet for user %s: %w", userID, err)
	}
	return wallet, nil
}

// Credit adds amount, creating the wallet on first use
func (r *WalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	query := `
		INSERT INTO wallets (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance
		RETURNING ` + walletColumns

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, userID, amount))
	if err != nil {
		return nil, fmt.Errorf("failed to credit wallet for user %s: %w", userID, err)
	}
	return wallet, nil
}
