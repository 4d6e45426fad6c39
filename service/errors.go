package service

import "errors"

// Domain errors returned by the escrow services. Callers match them with errors.Is.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrUserSuspended        = errors.New("user is suspended")
	ErrUserNotFound         = errors.New("user not found")
	ErrChallengeUnavailable = errors.New("challenge is no longer available")
	ErrInvalidWinner        = errors.New("winner is not a participant of the match")
	ErrSettlementConflict   = errors.New("match was already settled")
	ErrStakeBelowMinimum    = errors.New("stake is below the minimum amount")
	ErrMatchNotFound        = errors.New("match not found")
	ErrHoldNotFound         = errors.New("hold not found")
	ErrInvalidState         = errors.New("operation not allowed in the current match state")
	ErrNotParticipant       = errors.New("user is not a participant of the match")
	ErrInvalidParticipant   = errors.New("user cannot take part in this match")
	ErrTeamFull             = errors.New("team is full")
	ErrInvalidTeamSize      = errors.New("invalid team size")
	ErrForbidden            = errors.New("operation not permitted")
	ErrDecisionRequired     = errors.New("an admin decision is required to resolve a disputed match")
	ErrReasonRequired       = errors.New("a reason is required")
	ErrInvalidFeePercentage = errors.New("fee percentage must be at least 0, below 100 and have at most two decimal places")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrDuplicatePayout      = errors.New("match payout already recorded for user")
)
