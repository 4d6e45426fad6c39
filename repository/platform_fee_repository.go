package repository

import (
	"context"
	"errors"
	"fmt"

	"challenger/database"
	"challenger/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PlatformFeeRepository implements the PlatformFeeRepository interface
type PlatformFeeRepository struct {
	q queryable
}

// NewPlatformFeeRepository creates a new platform fee repository
func NewPlatformFeeRepository(db *database.DB) *PlatformFeeRepository {
	return &PlatformFeeRepository{q: db.Pool}
}

// newPlatformFeeRepositoryWithTx creates a new platform fee repository with a transaction
func newPlatformFeeRepositoryWithTx(tx queryable) *PlatformFeeRepository {
	return &PlatformFeeRepository{q: tx}
}

// Create records the fee taken from a match pot.
// The percentage travels as text; callers keep it within two decimal places.
func (r *PlatformFeeRepository) Create(ctx context.Context, fee *models.PlatformFee) error {
	query := `
		INSERT INTO platform_fees (match_id, pot, fee_percentage, amount)
		VALUES ($1, $2, $3::numeric, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		fee.MatchID,
		fee.Pot,
		fee.FeePercentage.String(),
		fee.Amount,
	).Scan(&fee.ID, &fee.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record platform fee for match %d: %w", fee.MatchID, err)
	}
	return nil
}

// GetByMatch returns the fee recorded for a match
func (r *PlatformFeeRepository) GetByMatch(ctx context.Context, matchID int64) (*models.PlatformFee, error) {
	query := `
		SELECT id, match_id, pot, fee_percentage::text, amount, created_at
		FROM platform_fees
		WHERE match_id = $1
	`

	var fee models.PlatformFee
	var percentage string
	err := r.q.QueryRow(ctx, query, matchID).Scan(
		&fee.ID,
		&fee.MatchID,
		&fee.Pot,
		&percentage,
		&fee.Amount,
		&fee.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get platform fee for match %d: %w", matchID, err)
	}

	fee.FeePercentage, err = decimal.NewFromString(percentage)
	if err != nil {
		return nil, fmt.Errorf("invalid fee percentage %q for match %d: %w", percentage, matchID, err)
	}
	return &fee, nil
}
