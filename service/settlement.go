package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// settleableStatuses are the statuses a result can be recorded from
var settleableStatuses = []models.MatchStatus{
	models.MatchStatusPendingResult,
	models.MatchStatusDisputed,
}

// SettleMatch pays the pot minus the platform fee to the winning side.
// Every step runs in one transaction: either all money moves or none does.
func (s *matchService) SettleMatch(ctx context.Context, req SettleMatchRequest) (*models.SettlementResult, error) {
	percentage := s.config.PlatformFeePercentage
	if req.FeePercentage != nil {
		percentage = *req.FeePercentage
	}
	if !models.ValidFeePercentage(percentage) {
		return nil, ErrInvalidFeePercentage
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := lockMatch(ctx, uow, req.MatchID)
	if err != nil {
		return nil, err
	}

	if match.Status == models.MatchStatusCompleted {
		return existingSettlement(ctx, uow, match)
	}
	if !match.IsSettleable() {
		return nil, fmt.Errorf("%w: cannot settle match while it is %s", ErrInvalidState, match.Status)
	}

	decision := strings.TrimSpace(req.AdminDecision)
	if match.Status == models.MatchStatusDisputed && decision == "" {
		return nil, ErrDecisionRequired
	}

	detail, err := loadDetail(ctx, uow, match)
	if err != nil {
		return nil, err
	}
	winner := detail.Participant(req.WinnerID)
	if winner == nil {
		return nil, ErrInvalidWinner
	}

	// The row lock already serializes settlers; the compare-and-set keeps the
	// completed transition single-shot even if a caller skipped the lock
	from := match.Status
	moved, err := uow.MatchRepository().TransitionStatus(ctx, match.ID, settleableStatuses, models.MatchStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !moved {
		current, err := uow.MatchRepository().GetByID(ctx, match.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload match: %w", err)
		}
		if current != nil && current.Status == models.MatchStatusCompleted {
			return existingSettlement(ctx, uow, current)
		}
		return nil, fmt.Errorf("%w: match %d changed state during settlement", ErrInvalidState, match.ID)
	}

	result, err := payoutWin(ctx, uow, detail, winner, percentage)
	if errors.Is(err, ErrDuplicatePayout) {
		// another settlement committed the payout first; this transaction is rolled back
		log.WithField("matchID", match.ID).WithError(err).Warn("Payout rejected by single-payout index")
		return &models.SettlementResult{
			MatchID:        match.ID,
			Payouts:        map[string]int64{},
			AlreadySettled: true,
		}, fmt.Errorf("%w: %w", ErrSettlementConflict, err)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	outcome := models.MatchOutcomeWin
	winnerID := req.WinnerID
	match.Status = models.MatchStatusCompleted
	match.WinnerID = &winnerID
	match.Outcome = &outcome
	match.CompletedAt = &now
	if decision != "" {
		match.AdminDecision = &decision
	}
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	result.Match = match

	publishTransition(uow, match, from, req.ActorID)
	uow.EventBus().Publish(events.SettlementCompletedEvent{
		MatchID:  match.ID,
		WinnerID: &winnerID,
		Outcome:  outcome,
		Pot:      result.Pot,
		Fee:      result.Fee,
		Payout:   result.Payout,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":  match.ID,
		"winnerID": winnerID,
		"pot":      result.Pot,
		"fee":      result.Fee,
		"payout":   result.Payout,
		"actorID":  req.ActorID,
	}).Info("Match settled")

	return result, nil
}

// payoutWin moves every held stake into the pot, credits the winning side and
// writes the ledger rows. In a team match the payout is split evenly and the
// remainder goes to the declared winner.
func payoutWin(ctx context.Context, uow UnitOfWork, detail *models.MatchDetail, winner *models.MatchParticipant, percentage decimal.Decimal) (*models.SettlementResult, error) {
	match := detail.Match
	pot := models.SumHeld(detail.Holds)
	fee := models.CalculateFee(pot, percentage)
	payout := pot - fee

	for _, hold := range detail.Holds {
		if hold.IsTerminal() {
			continue
		}
		if err := SettleHold(ctx, uow, hold.ID, models.HoldDestinationPot); err != nil {
			return nil, fmt.Errorf("failed to settle hold %d: %w", hold.ID, err)
		}
	}

	winners := detail.TeamMembers(winner.Team)
	shares := splitPayout(payout, winners, winner.UserID)

	metadata := models.MatchMetadata(match.ID, map[string]any{
		"pot":            pot,
		"fee":            fee,
		"fee_percentage": percentage.String(),
	})

	payouts := make(map[string]int64, len(shares))
	for _, userID := range winners {
		amount := shares[userID]
		if amount <= 0 {
			continue
		}
		if _, err := CreditWallet(ctx, uow, userID, amount, ReasonMatchPayout, match.ID); err != nil {
			return nil, err
		}
		if err := uow.TransactionRepository().Create(ctx, &models.Transaction{
			UserID:   userID,
			Type:     models.TransactionTypeMatchWin,
			Amount:   amount,
			Status:   models.TransactionStatusCompleted,
			Metadata: metadata,
		}); err != nil {
			return nil, fmt.Errorf("failed to record payout: %w", err)
		}
		payouts[userID.String()] = amount
	}

	for _, p := range detail.Participants {
		if p.Team == winner.Team {
			continue
		}
		var stake int64
		if hold := detail.HoldFor(p.UserID); hold != nil {
			stake = hold.Amount
		}
		if err := uow.TransactionRepository().Create(ctx, &models.Transaction{
			UserID:   p.UserID,
			Type:     models.TransactionTypeMatchLoss,
			Amount:   stake,
			Status:   models.TransactionStatusCompleted,
			Metadata: models.MatchMetadata(match.ID, nil),
		}); err != nil {
			return nil, fmt.Errorf("failed to record loss: %w", err)
		}
	}

	if err := uow.PlatformFeeRepository().Create(ctx, &models.PlatformFee{
		MatchID:       match.ID,
		Pot:           pot,
		FeePercentage: percentage,
		Amount:        fee,
	}); err != nil {
		return nil, fmt.Errorf("failed to record platform fee: %w", err)
	}

	return &models.SettlementResult{
		MatchID: match.ID,
		Pot:     pot,
		Fee:     fee,
		Payout:  payout,
		Payouts: payouts,
		Outcome: models.MatchOutcomeWin,
	}, nil
}

// splitPayout divides payout evenly across members; the remainder of the
// integer division goes to lead
func splitPayout(payout int64, members []uuid.UUID, lead uuid.UUID) map[uuid.UUID]int64 {
	shares := make(map[uuid.UUID]int64, len(members))
	if len(members) == 0 {
		return nil
	}
	share := payout / int64(len(members))
	remainder := payout % int64(len(members))
	for _, id := range members {
		shares[id] = share
	}
	shares[lead] += remainder
	return shares
}

// existingSettlement rebuilds the result of a completed match for a retried
// settlement and pairs it with ErrSettlementConflict
func existingSettlement(ctx context.Context, uow UnitOfWork, match *models.Match) (*models.SettlementResult, error) {
	result := &models.SettlementResult{
		MatchID:        match.ID,
		Payouts:        map[string]int64{},
		Outcome:        models.MatchOutcomeWin,
		AlreadySettled: true,
		Match:          match,
	}
	if match.Outcome != nil {
		result.Outcome = *match.Outcome
	}

	fee, err := uow.PlatformFeeRepository().GetByMatch(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform fee: %w", err)
	}
	if fee != nil {
		result.Pot = fee.Pot
		result.Fee = fee.Amount
		result.Payout = fee.Pot - fee.Amount
	}

	transactions, err := uow.TransactionRepository().GetByMatch(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match transactions: %w", err)
	}
	for _, tx := range transactions {
		if tx.Type == models.TransactionTypeMatchWin && tx.Status == models.TransactionStatusCompleted {
			result.Payouts[tx.UserID.String()] += tx.Amount
		}
	}

	log.WithField("matchID", match.ID).Info("Settlement retried on completed match")

	return result, ErrSettlementConflict
}

// VoidMatch ends an accepted match as a draw. Every stake is released and no
// fee or payout is recorded.
func (s *matchService) VoidMatch(ctx context.Context, matchID int64, actorID uuid.UUID, decision string) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	if match.Status == models.MatchStatusCompleted {
		return existingSettlement(ctx, uow, match)
	}

	decision = strings.TrimSpace(decision)
	if match.Status == models.MatchStatusDisputed && decision == "" {
		return nil, ErrDecisionRequired
	}

	from := match.Status
	if err := transition(match, models.MatchStatusCompleted); err != nil {
		return nil, err
	}

	released, err := ReleaseMatchHolds(ctx, uow, match.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	outcome := models.MatchOutcomeDraw
	match.WinnerID = nil
	match.Outcome = &outcome
	match.CompletedAt = &now
	if decision != "" {
		match.AdminDecision = &decision
	}
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	publishTransition(uow, match, from, actorID)
	uow.EventBus().Publish(events.SettlementCompletedEvent{
		MatchID: match.ID,
		Outcome: outcome,
		Pot:     released,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":  match.ID,
		"released": released,
		"actorID":  actorID,
	}).Info("Match voided")

	return &models.SettlementResult{
		MatchID: match.ID,
		Pot:     released,
		Payouts: map[string]int64{},
		Outcome: outcome,
		Match:   match,
	}, nil
}

// IsSettlementConflict reports whether err marks a retried settlement
func IsSettlementConflict(err error) bool {
	return errors.Is(err, ErrSettlementConflict)
}
