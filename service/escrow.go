package service

import (
	"context"
	"fmt"

	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// requireActiveUser loads a user and rejects unknown or suspended accounts
func requireActiveUser(ctx context.Context, uow UnitOfWork, userID uuid.UUID) (*models.User, error) {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsSuspended {
		return nil, ErrUserSuspended
	}
	return user, nil
}

// PlaceHold reserves amount from the user's wallet for a match.
// Suspension is checked before the wallet is touched.
func PlaceHold(ctx context.Context, uow UnitOfWork, matchID int64, userID uuid.UUID, amount int64) (*models.WalletHold, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := requireActiveUser(ctx, uow, userID); err != nil {
		return nil, err
	}

	if err := uow.WalletRepository().EnsureExists(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}

	if _, err := DebitWallet(ctx, uow, userID, amount, ReasonHoldPlaced, matchID); err != nil {
		return nil, err
	}

	hold := &models.WalletHold{
		MatchID: matchID,
		UserID:  userID,
		Amount:  amount,
	}
	if err := uow.HoldRepository().Create(ctx, hold); err != nil {
		return nil, fmt.Errorf("failed to create hold: %w", err)
	}

	uow.EventBus().Publish(events.HoldChangedEvent{
		HoldID:  hold.ID,
		MatchID: matchID,
		UserID:  userID,
		Amount:  amount,
		Status:  models.HoldStatusHeld,
	})

	log.WithFields(log.Fields{
		"holdID":  hold.ID,
		"matchID": matchID,
		"userID":  userID,
		"amount":  amount,
	}).Debug("Placed escrow hold")

	return hold, nil
}

// ReleaseHold returns a held stake to its owner. Releasing a hold that is
// already released or settled is a no-op.
func ReleaseHold(ctx context.Context, uow UnitOfWork, holdID int64) error {
	hold, err := uow.HoldRepository().GetByID(ctx, holdID)
	if err != nil {
		return fmt.Errorf("failed to get hold: %w", err)
	}
	if hold == nil {
		return ErrHoldNotFound
	}
	if hold.IsTerminal() {
		log.WithFields(log.Fields{"holdID": holdID, "status": hold.Status}).Debug("Hold already terminal, release skipped")
		return nil
	}

	// Credit only if this call won the held -> released transition
	released, err := uow.HoldRepository().MarkReleased(ctx, holdID)
	if err != nil {
		return fmt.Errorf("failed to mark hold released: %w", err)
	}
	if !released {
		return nil
	}

	if _, err := CreditWallet(ctx, uow, hold.UserID, hold.Amount, ReasonHoldReleased, hold.MatchID); err != nil {
		return err
	}

	uow.EventBus().Publish(events.HoldChangedEvent{
		HoldID:  hold.ID,
		MatchID: hold.MatchID,
		UserID:  hold.UserID,
		Amount:  hold.Amount,
		Status:  models.HoldStatusReleased,
	})

	return nil
}

// SettleHold moves a held stake to destination without crediting the owner.
// Settling a hold that is already terminal is a no-op.
func SettleHold(ctx context.Context, uow UnitOfWork, holdID int64, destination string) error {
	hold, err := uow.HoldRepository().GetByID(ctx, holdID)
	if err != nil {
		return fmt.Errorf("failed to get hold: %w", err)
	}
	if hold == nil {
		return ErrHoldNotFound
	}
	if hold.IsTerminal() {
		log.WithFields(log.Fields{"holdID": holdID, "status": hold.Status}).Debug("Hold already terminal, settle skipped")
		return nil
	}

	settled, err := uow.HoldRepository().MarkSettled(ctx, holdID, destination)
	if err != nil {
		return fmt.Errorf("failed to mark hold settled: %w", err)
	}
	if !settled {
		return nil
	}

	uow.EventBus().Publish(events.HoldChangedEvent{
		HoldID:  hold.ID,
		MatchID: hold.MatchID,
		UserID:  hold.UserID,
		Amount:  hold.Amount,
		Status:  models.HoldStatusForfeited,
	})

	return nil
}

// ReleaseMatchHolds releases every outstanding hold of a match and returns
// the total amount returned to wallets
func ReleaseMatchHolds(ctx context.Context, uow UnitOfWork, matchID int64) (int64, error) {
	holds, err := uow.HoldRepository().GetByMatch(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to get match holds: %w", err)
	}

	var total int64
	for _, hold := range holds {
		if hold.IsTerminal() {
			continue
		}
		if err := ReleaseHold(ctx, uow, hold.ID); err != nil {
			return 0, fmt.Errorf("failed to release hold %d: %w", hold.ID, err)
		}
		total += hold.Amount
	}
	return total, nil
}
