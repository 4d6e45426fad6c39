package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's spendable balance in minor currency units.
// Escrowed stakes are not part of Balance; they live in wallet holds.
type Wallet struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Balance        int64     `db:"balance" json:"balance"`
	TotalDeposited int64     `db:"total_deposited" json:"total_deposited"`
	TotalWithdrawn int64     `db:"total_withdrawn" json:"total_withdrawn"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// WalletSummary is a wallet together with the funds currently escrowed
type WalletSummary struct {
	Wallet
	HeldAmount int64 `json:"held_amount"`
}
