package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement recorded
type TransactionType string

const (
	TransactionTypeDeposit         TransactionType = "deposit"
	TransactionTypeWithdrawal      TransactionType = "withdrawal"
	TransactionTypeMatchWin        TransactionType = "match_win"
	TransactionTypeMatchLoss       TransactionType = "match_loss"
	TransactionTypeTournamentEntry TransactionType = "tournament_entry"
	TransactionTypeTournamentPrize TransactionType = "tournament_prize"
	TransactionTypeRefund          TransactionType = "refund"
)

// TransactionStatus represents the processing state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// MetadataMatchID is the metadata key linking a transaction to its match
const MetadataMatchID = "match_id"

// Transaction is an append-only financial record
type Transaction struct {
	ID            int64             `db:"id" json:"id"`
	UserID        uuid.UUID         `db:"user_id" json:"user_id"`
	Type          TransactionType   `db:"type" json:"type"`
	Amount        int64             `db:"amount" json:"amount"`
	Status        TransactionStatus `db:"status" json:"status"`
	ReferenceCode string            `db:"reference_code" json:"reference_code"`
	Metadata      map[string]any    `db:"metadata" json:"metadata"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time        `db:"processed_at" json:"processed_at,omitempty"`
}

// MatchMetadata builds the metadata stored on match-related transactions.
// The match ID is kept as a string so the JSONB lookup key is stable.
func MatchMetadata(matchID int64, extra map[string]any) map[string]any {
	metadata := map[string]any{MetadataMatchID: strconv.FormatInt(matchID, 10)}
	for k, v := range extra {
		metadata[k] = v
	}
	return metadata
}

// MatchID extracts the match ID from metadata, if present
func (t *Transaction) MatchID() (int64, bool) {
	switch v := t.Metadata[MetadataMatchID].(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	case float64:
		return int64(v), true
	}
	return 0, false
}
