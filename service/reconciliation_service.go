package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type reconciliationService struct {
	uowFactory UnitOfWorkFactory
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(uowFactory UnitOfWorkFactory) ReconciliationService {
	return &reconciliationService{uowFactory: uowFactory}
}

// AnalyzeDuplicates scans completed match payouts and reports every
// (match, user) pair with more than one row. Nothing is modified.
func (s *reconciliationService) AnalyzeDuplicates(ctx context.Context) (*models.DuplicateReport, error) {
	startedAt := time.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wins, err := uow.TransactionRepository().ListCompletedMatchWins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list match payouts: %w", err)
	}

	report := BuildDuplicateReport(wins)
	report.DryRun = true
	report.StartedAt = startedAt
	report.FinishedAt = time.Now()

	log.WithFields(log.Fields{
		"matchesScanned":        report.MatchesScanned,
		"matchesWithDuplicates": report.MatchesWithDuplicates,
		"duplicatesFound":       report.DuplicatesFound,
		"amountRecoverable":     report.AmountRecoverable,
	}).Info("Duplicate payout analysis complete")

	return report, nil
}

// FixDuplicates deletes every duplicate payout, keeping the earliest row of
// each group. Each deletion commits on its own so one failing row does not
// block the rest; failures are collected in the report. A cancelled context
// stops the run and the report marks it Interrupted with what was removed so far.
func (s *reconciliationService) FixDuplicates(ctx context.Context) (*models.DuplicateReport, error) {
	report, err := s.AnalyzeDuplicates(ctx)
	if err != nil {
		return nil, err
	}
	report.DryRun = false

groups:
	for _, group := range report.Groups {
		for _, dup := range group.Duplicates {
			if err := ctx.Err(); err != nil {
				log.WithError(err).WithField("duplicatesRemoved", report.DuplicatesRemoved).
					Warn("Duplicate payout fix interrupted")
				report.Interrupted = true
				report.Errors = append(report.Errors, models.ReconciliationError{
					TransactionID: dup.ID,
					MatchID:       group.MatchID,
					Error:         err.Error(),
				})
				break groups
			}

			removed, err := s.deleteDuplicate(ctx, dup.ID)
			if err != nil {
				log.WithFields(log.Fields{
					"transactionID": dup.ID,
					"matchID":       group.MatchID,
					"userID":        group.UserID,
				}).WithError(err).Error("Failed to delete duplicate payout")
				report.Errors = append(report.Errors, models.ReconciliationError{
					TransactionID: dup.ID,
					MatchID:       group.MatchID,
					Error:         err.Error(),
				})
				continue
			}
			if !removed {
				report.Errors = append(report.Errors, models.ReconciliationError{
					TransactionID: dup.ID,
					MatchID:       group.MatchID,
					Error:         "row already removed or no earlier payout exists",
				})
				continue
			}

			report.DuplicatesRemoved++
			report.AmountRecovered += dup.Amount
		}
	}
	report.FinishedAt = time.Now()

	if report.DuplicatesRemoved > 0 {
		// deletions already committed, so announce them even after cancellation
		if err := s.publishRemoval(context.WithoutCancel(ctx), report); err != nil {
			log.WithError(err).Warn("Failed to publish duplicate removal event")
		}
	}

	log.WithFields(log.Fields{
		"duplicatesRemoved": report.DuplicatesRemoved,
		"amountRecovered":   report.AmountRecovered,
		"errors":            len(report.Errors),
		"interrupted":       report.Interrupted,
	}).Info("Duplicate payout fix complete")

	return report, nil
}

func (s *reconciliationService) deleteDuplicate(ctx context.Context, transactionID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	removed, err := uow.TransactionRepository().DeleteDuplicateMatchWin(ctx, transactionID)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (s *reconciliationService) publishRemoval(ctx context.Context, report *models.DuplicateReport) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	uow.EventBus().Publish(events.DuplicatesRemovedEvent{
		DuplicatesRemoved: report.DuplicatesRemoved,
		AmountRecovered:   report.AmountRecovered,
		AffectedUsers:     report.AffectedUsers,
		Errors:            len(report.Errors),
	})

	return uow.Commit()
}

type payoutKey struct {
	matchID int64
	userID  uuid.UUID
}

// BuildDuplicateReport groups completed payouts by match and user. Within a
// group the earliest row (by created_at, then id) is canonical.
func BuildDuplicateReport(wins []*models.Transaction) *models.DuplicateReport {
	report := &models.DuplicateReport{
		Groups: []models.DuplicateGroup{},
		Errors: []models.ReconciliationError{},
	}

	groups := make(map[payoutKey][]*models.Transaction)
	var order []payoutKey
	matches := make(map[int64]struct{})

	for _, tx := range wins {
		matchID, ok := tx.MatchID()
		if !ok {
			report.Errors = append(report.Errors, models.ReconciliationError{
				TransactionID: tx.ID,
				Error:         "transaction metadata has no usable match_id",
			})
			continue
		}
		matches[matchID] = struct{}{}

		key := payoutKey{matchID: matchID, userID: tx.UserID}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}
	report.MatchesScanned = len(matches)

	matchesWithDuplicates := make(map[int64]struct{})
	affectedUsers := make(map[uuid.UUID]struct{})

	for _, key := range order {
		rows := groups[key]
		if len(rows) < 2 {
			continue
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
				return rows[i].CreatedAt.Before(rows[j].CreatedAt)
			}
			return rows[i].ID < rows[j].ID
		})

		group := models.DuplicateGroup{
			MatchID:   key.matchID,
			UserID:    key.userID,
			Canonical: toDuplicateTransaction(rows[0]),
		}
		for _, row := range rows[1:] {
			group.Duplicates = append(group.Duplicates, toDuplicateTransaction(row))
		}

		report.Groups = append(report.Groups, group)
		report.DuplicatesFound += len(group.Duplicates)
		report.AmountRecoverable += group.DuplicateAmount()
		matchesWithDuplicates[key.matchID] = struct{}{}
		affectedUsers[key.userID] = struct{}{}
	}

	report.MatchesWithDuplicates = len(matchesWithDuplicates)
	report.AffectedUsers = len(affectedUsers)
	return report
}

func toDuplicateTransaction(tx *models.Transaction) models.DuplicateTransaction {
	return models.DuplicateTransaction{
		ID:            tx.ID,
		Amount:        tx.Amount,
		ReferenceCode: tx.ReferenceCode,
		CreatedAt:     tx.CreatedAt,
	}
}
