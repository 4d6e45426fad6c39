package service

import (
	"context"
	"fmt"

	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
)

// Balance change reasons carried on BalanceChangeEvent
const (
	ReasonHoldPlaced   = "hold_placed"
	ReasonHoldReleased = "hold_released"
	ReasonMatchPayout  = "match_payout"
)

// DebitWallet removes amount from the user's spendable balance inside uow.
// The check and the subtraction are one statement, so the balance never goes
// negative even under concurrent debits. Fails with ErrInsufficientFunds.
func DebitWallet(ctx context.Context, uow UnitOfWork, userID uuid.UUID, amount int64, reason string, matchID int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := uow.WalletRepository().Debit(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}
	if wallet == nil {
		var balance int64
		current, err := uow.WalletRepository().GetByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to read wallet: %w", err)
		}
		if current != nil {
			balance = current.Balance
		}
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, balance, amount)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:     userID,
		OldBalance: wallet.Balance + amount,
		NewBalance: wallet.Balance,
		Change:     -amount,
		Reason:     reason,
		MatchID:    matchID,
	})

	return wallet, nil
}

// CreditWallet adds amount to the user's balance inside uow, creating the
// wallet on first use
func CreditWallet(ctx context.Context, uow UnitOfWork, userID uuid.UUID, amount int64, reason string, matchID int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := uow.WalletRepository().Credit(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:     userID,
		OldBalance: wallet.Balance - amount,
		NewBalance: wallet.Balance,
		Change:     amount,
		Reason:     reason,
		MatchID:    matchID,
	})

	return wallet, nil
}

// BalanceOf returns the user's spendable balance, 0 if no wallet exists
func BalanceOf(ctx context.Context, uow UnitOfWork, userID uuid.UUID) (int64, error) {
	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.Balance, nil
}
