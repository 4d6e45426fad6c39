package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlatformFee is the house cut recorded once per settled match
type PlatformFee struct {
	ID            int64           `db:"id" json:"id"`
	MatchID       int64           `db:"match_id" json:"match_id"`
	Pot           int64           `db:"pot" json:"pot"`
	FeePercentage decimal.Decimal `db:"fee_percentage" json:"fee_percentage"`
	Amount        int64           `db:"amount" json:"amount"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

var hundred = decimal.NewFromInt(100)

// CalculateFee returns pot * percentage / 100 rounded down to a whole unit
func CalculateFee(pot int64, percentage decimal.Decimal) int64 {
	if pot <= 0 || !percentage.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(pot).Mul(percentage).Div(hundred).Floor().IntPart()
}

// FeePercentageScale is the number of decimal places platform_fees.fee_percentage keeps
const FeePercentageScale = 2

// ValidFeePercentage reports whether percentage lies in [0, 100) and fits
// the stored scale, so the recorded rate is the rate that was charged.
func ValidFeePercentage(percentage decimal.Decimal) bool {
	if !percentage.Equal(percentage.Round(FeePercentageScale)) {
		return false
	}
	return !percentage.IsNegative() && percentage.LessThan(hundred)
}

// SettlementResult describes the money movement of one settlement
type SettlementResult struct {
	MatchID        int64            `json:"match_id"`
	Pot            int64            `json:"pot"`
	Fee            int64            `json:"fee"`
	Payout         int64            `json:"payout"`
	Payouts        map[string]int64 `json:"payouts"`
	Outcome        MatchOutcome     `json:"outcome"`
	AlreadySettled bool             `json:"already_settled"`
	Match          *Match           `json:"match"`
}
