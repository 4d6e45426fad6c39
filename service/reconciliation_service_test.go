package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestWin(id, matchID int64, userID uuid.UUID, amount int64, createdAt time.Time) *models.Transaction {
	return &models.Transaction{
		ID:            id,
		UserID:        userID,
		Type:          models.TransactionTypeMatchWin,
		Amount:        amount,
		Status:        models.TransactionStatusCompleted,
		ReferenceCode: uuid.NewString(),
		Metadata:      models.MatchMetadata(matchID, nil),
		CreatedAt:     createdAt,
	}
}

func TestBuildDuplicateReport(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	alice, bob := uuid.New(), uuid.New()

	t.Run("three payouts for one winner yield two duplicates", func(t *testing.T) {
		wins := []*models.Transaction{
			createTestWin(3, 1, alice, 500, base.Add(2*time.Second)),
			createTestWin(1, 1, alice, 500, base),
			createTestWin(2, 1, alice, 500, base.Add(time.Second)),
			createTestWin(4, 1, bob, 700, base),
			createTestWin(5, 2, alice, 900, base),
		}

		report := BuildDuplicateReport(wins)

		assert.Equal(t, 2, report.MatchesScanned)
		assert.Equal(t, 1, report.MatchesWithDuplicates)
		assert.Equal(t, 1, report.AffectedUsers)
		assert.Equal(t, 2, report.DuplicatesFound)
		assert.Equal(t, int64(1000), report.AmountRecoverable)
		require.Len(t, report.Groups, 1)

		group := report.Groups[0]
		assert.Equal(t, int64(1), group.MatchID)
		assert.Equal(t, alice, group.UserID)
		assert.Equal(t, int64(1), group.Canonical.ID)
		require.Len(t, group.Duplicates, 2)
		assert.Equal(t, int64(2), group.Duplicates[0].ID)
		assert.Equal(t, int64(3), group.Duplicates[1].ID)
	})

	t.Run("equal timestamps fall back to id order", func(t *testing.T) {
		wins := []*models.Transaction{
			createTestWin(9, 1, alice, 500, base),
			createTestWin(8, 1, alice, 500, base),
		}

		report := BuildDuplicateReport(wins)

		require.Len(t, report.Groups, 1)
		assert.Equal(t, int64(8), report.Groups[0].Canonical.ID)
		assert.Equal(t, int64(9), report.Groups[0].Duplicates[0].ID)
	})

	t.Run("clean ledger", func(t *testing.T) {
		report := BuildDuplicateReport([]*models.Transaction{
			createTestWin(1, 1, alice, 500, base),
			createTestWin(2, 2, bob, 500, base),
		})

		assert.Equal(t, 2, report.MatchesScanned)
		assert.Zero(t, report.DuplicatesFound)
		assert.Empty(t, report.Groups)
		assert.Empty(t, report.Errors)
	})

	t.Run("unparseable match id is reported", func(t *testing.T) {
		bad := createTestWin(7, 1, alice, 500, base)
		bad.Metadata = map[string]any{models.MetadataMatchID: "not-a-number"}

		report := BuildDuplicateReport([]*models.Transaction{bad})

		require.Len(t, report.Errors, 1)
		assert.Equal(t, int64(7), report.Errors[0].TransactionID)
		assert.Zero(t, report.MatchesScanned)
	})
}

func TestReconciliationService_AnalyzeDuplicates(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewReconciliationService(m.factory)
	alice := uuid.New()
	base := time.Now().Add(-time.Hour)

	m.transactions.On("ListCompletedMatchWins", mock.Anything).Return([]*models.Transaction{
		createTestWin(1, 1, alice, 500, base),
		createTestWin(2, 1, alice, 500, base.Add(time.Second)),
	}, nil)

	report, err := svc.AnalyzeDuplicates(ctx)

	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.DuplicatesFound)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	m.transactions.AssertNotCalled(t, "DeleteDuplicateMatchWin", mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestReconciliationService_FixDuplicates(t *testing.T) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	base := time.Now().Add(-time.Hour)

	t.Run("removes duplicates and keeps canonical rows", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewReconciliationService(m.factory)
		m.transactions.On("ListCompletedMatchWins", mock.Anything).Return([]*models.Transaction{
			createTestWin(1, 1, alice, 500, base),
			createTestWin(2, 1, alice, 500, base.Add(time.Second)),
			createTestWin(3, 1, alice, 500, base.Add(2*time.Second)),
		}, nil)
		m.transactions.On("DeleteDuplicateMatchWin", mock.Anything, int64(2)).Return(true, nil)
		m.transactions.On("DeleteDuplicateMatchWin", mock.Anything, int64(3)).Return(true, nil)

		report, err := svc.FixDuplicates(ctx)

		require.NoError(t, err)
		assert.False(t, report.DryRun)
		assert.Equal(t, 2, report.DuplicatesRemoved)
		assert.Equal(t, int64(1000), report.AmountRecovered)
		assert.Empty(t, report.Errors)
		m.transactions.AssertNotCalled(t, "DeleteDuplicateMatchWin", mock.Anything, int64(1))

		removed := m.publishedOfType(events.EventTypeDuplicatesRemoved)
		require.Len(t, removed, 1)
		assert.Equal(t, 2, removed[0].(events.DuplicatesRemovedEvent).DuplicatesRemoved)
		m.assertExpectations(t)
	})

	t.Run("row failures are collected and processing continues", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewReconciliationService(m.factory)
		m.transactions.On("ListCompletedMatchWins", mock.Anything).Return([]*models.Transaction{
			createTestWin(1, 1, alice, 500, base),
			createTestWin(2, 1, alice, 500, base.Add(time.Second)),
			createTestWin(4, 2, bob, 800, base),
			createTestWin(5, 2, bob, 800, base.Add(time.Second)),
			createTestWin(6, 2, bob, 800, base.Add(2*time.Second)),
		}, nil)
		m.transactions.On("DeleteDuplicateMatchWin", mock.Anything, int64(2)).Return(false, errors.New("deadlock detected"))
		m.transactions.On("DeleteDuplicateMatchWin", mock.Anything, int64(5)).Return(false, nil)
		m.transactions.On("DeleteDuplicateMatchWin", mock.Anything, int64(6)).Return(true, nil)

		report, err := svc.FixDuplicates(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, report.DuplicatesFound)
		assert.Equal(t, 1, report.DuplicatesRemoved)
		assert.Equal(t, int64(800), report.AmountRecovered)
		require.Len(t, report.Errors, 2)
		assert.Equal(t, int64(2), report.Errors[0].TransactionID)
		assert.Contains(t, report.Errors[0].Error, "deadlock detected")
		assert.Equal(t, int64(5), report.Errors[1].TransactionID)
		m.assertExpectations(t)
	})

	t.Run("cancellation keeps committed deletions in the report", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewReconciliationService(m.factory)
		cancelCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		m.transactions.On("ListCompletedMatchWins", mock.Anything).Return([]*models.Transaction{
			createTestWin(1, 1, alice, 500, base),
			createTestWin(2, 1, alice, 500, base.Add(time.Second)),
			createTestWin(3, 1, alice, 500, base.Add(2*time.Second)),
		}, nil)
		m.transactions.On("DeleteDuplicateMatchWin", mock.Anything, int64(2)).
			Run(func(mock.Arguments) { cancel() }).
			Return(true, nil)

		report, err := svc.FixDuplicates(cancelCtx)

		require.NoError(t, err)
		require.NotNil(t, report)
		assert.True(t, report.Interrupted)
		assert.Equal(t, 1, report.DuplicatesRemoved)
		assert.Equal(t, int64(500), report.AmountRecovered)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, int64(3), report.Errors[0].TransactionID)
		assert.Contains(t, report.Errors[0].Error, context.Canceled.Error())
		assert.False(t, report.FinishedAt.IsZero())
		m.transactions.AssertNotCalled(t, "DeleteDuplicateMatchWin", mock.Anything, int64(3))

		removed := m.publishedOfType(events.EventTypeDuplicatesRemoved)
		require.Len(t, removed, 1)
		assert.Equal(t, 1, removed[0].(events.DuplicatesRemovedEvent).DuplicatesRemoved)
	})

	t.Run("nothing to fix publishes nothing", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewReconciliationService(m.factory)
		m.transactions.On("ListCompletedMatchWins", mock.Anything).Return([]*models.Transaction{}, nil)

		report, err := svc.FixDuplicates(ctx)

		require.NoError(t, err)
		assert.Zero(t, report.DuplicatesRemoved)
		assert.Empty(t, m.publisher.Published())
	})
}
