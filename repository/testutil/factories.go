package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"challenger/database"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestUser builds a user with default values
func CreateTestUser(role models.UserRole) *models.User {
	id := uuid.New()
	return &models.User{
		ID:       id,
		Email:    fmt.Sprintf("%s@example.com", id.String()[:8]),
		Username: "player-" + id.String()[:8],
		Role:     role,
	}
}

// SeedUser inserts a user together with a wallet holding balance
func SeedUser(t *testing.T, db *database.DB, role models.UserRole, balance int64) *models.User {
	t.Helper()
	user := CreateTestUser(role)

	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		err := tx.QueryRow(context.Background(), `
			INSERT INTO users (id, email, username, role)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at
		`, user.ID, user.Email, user.Username, user.Role).Scan(&user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(context.Background(), `
			INSERT INTO wallets (user_id, balance, total_deposited)
			VALUES ($1, $2, $2)
		`, user.ID, balance)
		return err
	})
	require.NoError(t, err)

	return user
}

// SeedSuspendedUser inserts a funded user flagged as suspended
func SeedSuspendedUser(t *testing.T, db *database.DB, balance int64) *models.User {
	t.Helper()
	user := SeedUser(t, db, models.UserRoleUser, balance)

	reason := "chargeback"
	_, err := db.Exec(context.Background(),
		`UPDATE users SET is_suspended = TRUE, suspended_reason = $2 WHERE id = $1`, user.ID, reason)
	require.NoError(t, err)

	user.IsSuspended = true
	user.SuspendedReason = &reason
	return user
}

// SeedMatchWin inserts a completed match_win row directly, bypassing the
// settlement engine. Each call runs in its own statement so created_at
// increases between calls.
func SeedMatchWin(t *testing.T, db *database.DB, matchID int64, userID uuid.UUID, amount int64) int64 {
	t.Helper()

	metadata, err := json.Marshal(models.MatchMetadata(matchID, map[string]any{"seeded": true}))
	require.NoError(t, err)

	var id int64
	err = db.QueryRow(context.Background(), `
		INSERT INTO transactions (user_id, type, amount, status, reference_code, metadata, processed_at)
		VALUES ($1, 'match_win', $2, 'completed', $3, $4, clock_timestamp())
		RETURNING id
	`, userID, amount, uuid.NewString(), metadata).Scan(&id)
	require.NoError(t, err)

	return id
}

// AllowLegacyDuplicatePayouts drops the single-payout index so tests can
// reproduce ledgers written before the index existed
func AllowLegacyDuplicatePayouts(t *testing.T, db *database.DB) {
	t.Helper()
	_, err := db.Exec(context.Background(), `DROP INDEX IF EXISTS idx_transactions_single_match_win`)
	require.NoError(t, err)
}

// WalletBalance reads a balance straight from the table
func WalletBalance(t *testing.T, db *database.DB, userID uuid.UUID) int64 {
	t.Helper()
	var balance int64
	err := db.QueryRow(context.Background(), `SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}
