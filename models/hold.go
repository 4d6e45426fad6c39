package models

import (
	"time"

	"github.com/google/uuid"
)

// HoldStatus represents the state of an escrow hold
type HoldStatus string

const (
	HoldStatusHeld      HoldStatus = "held"
	HoldStatusReleased  HoldStatus = "released"
	HoldStatusForfeited HoldStatus = "forfeited"
)

// HoldDestinationPot marks a settled hold whose funds went into the match pot
const HoldDestinationPot = "pot"

// WalletHold is a stake reserved from a wallet for one match
type WalletHold struct {
	ID         int64      `db:"id" json:"id"`
	MatchID    int64      `db:"match_id" json:"match_id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	Amount     int64      `db:"amount" json:"amount"`
	Status     HoldStatus `db:"status" json:"status"`
	SettledTo  *string    `db:"settled_to" json:"settled_to,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ReleasedAt *time.Time `db:"released_at" json:"released_at,omitempty"`
}

// IsTerminal reports whether the hold has already been released or settled
func (h *WalletHold) IsTerminal() bool {
	return h.Status != HoldStatusHeld
}

// SumHeld totals the amounts of holds still in the held state
func SumHeld(holds []*WalletHold) int64 {
	var total int64
	for _, h := range holds {
		if h.Status == HoldStatusHeld {
			total += h.Amount
		}
	}
	return total
}
