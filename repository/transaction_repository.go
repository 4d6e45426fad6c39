package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"challenger/database"
	"challenger/models"
	"challenger/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const transactionColumns = `id, user_id, type, amount, status, reference_code, metadata, created_at, processed_at`

const (
	uniqueViolation     = "23505"
	singleMatchWinIndex = "idx_transactions_single_match_win"
)

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	var metadataJSON []byte
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Amount,
		&tx.Status,
		&tx.ReferenceCode,
		&metadataJSON,
		&tx.CreatedAt,
		&tx.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &tx.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata of transaction %d: %w", tx.ID, err)
		}
	}
	return &tx, nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// Create appends a transaction to the ledger
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.ReferenceCode == "" {
		tx.ReferenceCode = uuid.NewString()
	}
	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}
	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}

	metadataJSON, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	var processedAt *time.Time
	if tx.Status == models.TransactionStatusCompleted {
		now := time.Now().UTC()
		processedAt = &now
	}

	query := `
		INSERT INTO transactions (user_id, type, amount, status, reference_code, metadata, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, processed_at
	`

	err = r.q.QueryRow(ctx, query,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.Status,
		tx.ReferenceCode,
		metadataJSON,
		processedAt,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.ProcessedAt)
	if err != nil {
		if isDuplicatePayout(err) {
			return fmt.Errorf("%w: user %s", service.ErrDuplicatePayout, tx.UserID)
		}
		return fmt.Errorf("failed to create %s transaction for user %s: %w", tx.Type, tx.UserID, err)
	}
	return nil
}

// isDuplicatePayout reports whether err is the single-payout index rejecting an insert
func isDuplicatePayout(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == singleMatchWinIndex
}

// GetByUser returns a user's transactions, newest first
func (r *TransactionRepository) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	transactions, err := r.queryTransactions(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %s: %w", userID, err)
	}
	return transactions, nil
}

// GetByMatch returns all transactions tagged with a match
func (r *TransactionRepository) GetByMatch(ctx context.Context, matchID int64) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE metadata->>'match_id' = $1
		ORDER BY created_at, id
	`

	transactions, err := r.queryTransactions(ctx, query, fmt.Sprint(matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for match %d: %w", matchID, err)
	}
	return transactions, nil
}

// ListCompletedMatchWins returns all completed payouts grouped by match and user,
// earliest first within each group
func (r *TransactionRepository) ListCompletedMatchWins(ctx context.Context) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE type = 'match_win'
		  AND status = 'completed'
		  AND metadata ? 'match_id'
		ORDER BY metadata->>'match_id', user_id, created_at, id
	`

	transactions, err := r.queryTransactions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list match wins: %w", err)
	}
	return transactions, nil
}

// DeleteDuplicateMatchWin removes a payout row only while an earlier payout
// for the same match and user exists, so the canonical row always survives
func (r *TransactionRepository) DeleteDuplicateMatchWin(ctx context.Context, id int64) (bool, error) {
	query := `
		DELETE FROM transactions t
		WHERE t.id = $1
		  AND t.type = 'match_win'
		  AND t.status = 'completed'
		  AND EXISTS (
		      SELECT 1
		      FROM transactions e
		      WHERE e.type = 'match_win'
		        AND e.status = 'completed'
		        AND e.user_id = t.user_id
		        AND e.metadata->>'match_id' = t.metadata->>'match_id'
		        AND (e.created_at, e.id) < (t.created_at, t.id)
		  )
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete duplicate transaction %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}
