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

const holdColumns = `id, match_id, user_id, amount, status, settled_to, created_at, released_at`

// HoldRepository implements the HoldRepository interface
type HoldRepository struct {
	q queryable
}

// NewHoldRepository creates a new hold repository
func NewHoldRepository(db *database.DB) *HoldRepository {
	return &HoldRepository{q: db.Pool}
}

// newHoldRepositoryWithTx creates a new hold repository with a transaction
func newHoldRepositoryWithTx(tx queryable) *HoldRepository {
	return &HoldRepository{q: tx}
}

func scanHold(row pgx.Row) (*models.WalletHold, error) {
	var hold models.WalletHold
	err := row.Scan(
		&hold.ID,
		&hold.MatchID,
		&hold.UserID,
		&hold.Amount,
		&hold.Status,
		&hold.SettledTo,
		&hold.CreatedAt,
		&hold.ReleasedAt,
	)
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

// Create inserts a hold in the held state
func (r *HoldRepository) Create(ctx context.Context, hold *models.WalletHold) error {
	query := `
		INSERT INTO wallet_holds (match_id, user_id, amount, status)
		VALUES ($1, $2, $3, 'held')
		RETURNING id, status, created_at
	`

	err := r.q.QueryRow(ctx, query, hold.MatchID, hold.UserID, hold.Amount).
		Scan(&hold.ID, &hold.Status, &hold.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create hold for user %s on match %d: %w", hold.UserID, hold.MatchID, err)
	}
	return nil
}

// GetByID retrieves a hold by ID
func (r *HoldRepository) GetByID(ctx context.Context, id int64) (*models.WalletHold, error) {
	query := `SELECT ` + holdColumns + ` FROM wallet_holds WHERE id = $1`

	hold, err := scanHold(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hold %d: %w", id, err)
	}
	return hold, nil
}

// GetByMatch returns all holds of a match
func (r *HoldRepository) GetByMatch(ctx context.Context, matchID int64) ([]*models.WalletHold, error) {
	query := `SELECT ` + holdColumns + ` FROM wallet_holds WHERE match_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holds for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var holds []*models.WalletHold
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hold: %w", err)
		}
		holds = append(holds, hold)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holds: %w", err)
	}
	return holds, nil
}

// MarkReleased moves a hold from held to released. Returns false if the
// hold had already left the held state.
func (r *HoldRepository) MarkReleased(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE wallet_holds
		SET status = 'released', released_at = NOW()
		WHERE id = $1 AND status = 'held'
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to release hold %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkSettled moves a hold from held to forfeited. Returns false if the
// hold had already left the held state.
func (r *HoldRepository) MarkSettled(ctx context.Context, id int64, destination string) (bool, error) {
	query := `
		UPDATE wallet_holds
		SET status = 'forfeited', settled_to = $2, released_at = NOW()
		WHERE id = $1 AND status = 'held'
	`

	result, err := r.q.Exec(ctx, query, id, destination)
	if err != nil {
		return false, fmt.Errorf("failed to settle hold %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// SumHeldByUser totals the user's outstanding holds
func (r *HoldRepository) SumHeldByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0)::BIGINT FROM wallet_holds WHERE user_id = $1 AND status = 'held'`

	var total int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum holds for user %s: %w", userID, err)
	}
	return total, nil
}
