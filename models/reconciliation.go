package models

import (
	"time"

	"github.com/google/uuid"
)

// DuplicateTransaction is one row of a duplicate payout group
type DuplicateTransaction struct {
	ID            int64     `json:"id"`
	Amount        int64     `json:"amount"`
	ReferenceCode string    `json:"reference_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// DuplicateGroup is the set of match_win rows sharing a match and user.
// Canonical is the earliest row; Duplicates are the rest in creation order.
type DuplicateGroup struct {
	MatchID    int64                  `json:"match_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Canonical  DuplicateTransaction   `json:"canonical"`
	Duplicates []DuplicateTransaction `json:"duplicates"`
}

// DuplicateAmount totals the duplicate rows of the group
func (g *DuplicateGroup) DuplicateAmount() int64 {
	var total int64
	for _, d := range g.Duplicates {
		total += d.Amount
	}
	return total
}

// ReconciliationError records a row the auditor failed to process
type ReconciliationError struct {
	TransactionID int64  `json:"transaction_id"`
	MatchID       int64  `json:"match_id"`
	Error         string `json:"error"`
}

// DuplicateReport summarises an analyze or fix run
type DuplicateReport struct {
	MatchesScanned        int                   `json:"matches_scanned"`
	MatchesWithDuplicates int                   `json:"matches_with_duplicates"`
	AffectedUsers         int                   `json:"affected_users"`
	DuplicatesFound       int                   `json:"duplicates_found"`
	DuplicatesRemoved     int                   `json:"duplicates_removed"`
	AmountRecoverable     int64                 `json:"amount_recoverable"`
	AmountRecovered       int64                 `json:"amount_recovered"`
	Groups                []DuplicateGroup      `json:"groups"`
	Errors                []ReconciliationError `json:"errors"`
	DryRun                bool                  `json:"dry_run"`
	Interrupted           bool                  `json:"interrupted"`
	StartedAt             time.Time             `json:"started_at"`
	FinishedAt            time.Time             `json:"finished_at"`
}
