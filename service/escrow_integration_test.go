package service_test

import (
	"context"
	"sync"
	"testing"

	"challenger/config"
	"challenger/events"
	"challenger/models"
	"challenger/repository"
	"challenger/repository/testutil"
	"challenger/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type escrowHarness struct {
	db             *testutil.TestDatabase
	matches        service.MatchService
	wallets        service.WalletService
	reconciliation service.ReconciliationService
}

func newEscrowHarness(t *testing.T) *escrowHarness {
	testDB := testutil.SetupTestDatabase(t)
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	cfg := config.NewTestConfig()

	return &escrowHarness{
		db:             testDB,
		matches:        service.NewMatchService(factory, cfg),
		wallets:        service.NewWalletService(factory),
		reconciliation: service.NewReconciliationService(factory),
	}
}

func (h *escrowHarness) balance(t *testing.T, userID uuid.UUID) int64 {
	return testutil.WalletBalance(t, h.db.DB, userID)
}

func (h *escrowHarness) playedMatch(t *testing.T, creatorID, opponentID uuid.UUID, stake int64) int64 {
	ctx := context.Background()
	detail, err := h.matches.CreateMatch(ctx, service.CreateMatchRequest{CreatorID: creatorID, StakeAmount: stake})
	require.NoError(t, err)
	_, err = h.matches.AcceptChallenge(ctx, detail.Match.ID, opponentID)
	require.NoError(t, err)
	_, err = h.matches.MarkDone(ctx, detail.Match.ID, creatorID)
	require.NoError(t, err)
	return detail.Match.ID
}

func TestEscrowLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	h := newEscrowHarness(t)
	ctx := context.Background()

	t.Run("1v1 settlement moves stakes, fee and payout", func(t *testing.T) {
		creator := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 5000)
		opponent := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 3000)

		detail, err := h.matches.CreateMatch(ctx, service.CreateMatchRequest{CreatorID: creator.ID, StakeAmount: 1000})
		require.NoError(t, err)
		assert.Equal(t, int64(4000), h.balance(t, creator.ID))

		_, err = h.matches.AcceptChallenge(ctx, detail.Match.ID, opponent.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), h.balance(t, opponent.ID))

		summary, err := h.wallets.GetSummary(ctx, opponent.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), summary.HeldAmount)

		_, err = h.matches.UploadProof(ctx, detail.Match.ID, creator.ID, "https://cdn.example.com/win.png", "")
		require.NoError(t, err)

		result, err := h.matches.SettleMatch(ctx, service.SettleMatchRequest{MatchID: detail.Match.ID, WinnerID: creator.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2000), result.Pot)
		assert.Equal(t, int64(100), result.Fee)
		assert.Equal(t, int64(5900), h.balance(t, creator.ID))
		assert.Equal(t, int64(2000), h.balance(t, opponent.ID))

		got, err := h.matches.GetMatch(ctx, detail.Match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, got.Match.Status)
		for _, hold := range got.Holds {
			assert.Equal(t, models.HoldStatusForfeited, hold.Status)
		}
	})

	t.Run("second settlement is a conflict and pays nothing", func(t *testing.T) {
		creator := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 5000)
		opponent := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 5000)
		matchID := h.playedMatch(t, creator.ID, opponent.ID, 1000)

		_, err := h.matches.SettleMatch(ctx, service.SettleMatchRequest{MatchID: matchID, WinnerID: opponent.ID})
		require.NoError(t, err)

		result, err := h.matches.SettleMatch(ctx, service.SettleMatchRequest{MatchID: matchID, WinnerID: creator.ID})
		assert.ErrorIs(t, err, service.ErrSettlementConflict)
		require.NotNil(t, result)
		assert.True(t, result.AlreadySettled)
		assert.Equal(t, map[string]int64{opponent.ID.String(): 1900}, result.Payouts)

		assert.Equal(t, int64(4000), h.balance(t, creator.ID))
		assert.Equal(t, int64(5900), h.balance(t, opponent.ID))
	})

	t.Run("concurrent settlements pay out exactly once", func(t *testing.T) {
		creator := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 5000)
		opponent := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 5000)
		matchID := h.playedMatch(t, creator.ID, opponent.ID, 1000)

		var wg sync.WaitGroup
		var mu sync.Mutex
		var succeeded, conflicts int
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.matches.SettleMatch(ctx, service.SettleMatchRequest{MatchID: matchID, WinnerID: creator.ID})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case service.IsSettlementConflict(err):
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 4, conflicts)
		assert.Equal(t, int64(5900), h.balance(t, creator.ID))

		report, err := h.reconciliation.AnalyzeDuplicates(ctx)
		require.NoError(t, err)
		assert.Zero(t, report.DuplicatesFound)
	})

	t.Run("funds are conserved across cancel and void", func(t *testing.T) {
		creator := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 2500)
		opponent := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 2500)

		open, err := h.matches.CreateMatch(ctx, service.CreateMatchRequest{CreatorID: creator.ID, StakeAmount: 700})
		require.NoError(t, err)
		_, err = h.matches.CancelMatch(ctx, open.Match.ID, creator.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), h.balance(t, creator.ID))

		_, err = h.matches.AcceptChallenge(ctx, open.Match.ID, opponent.ID)
		assert.ErrorIs(t, err, service.ErrChallengeUnavailable)

		matchID := h.playedMatch(t, creator.ID, opponent.ID, 700)
		_, err = h.matches.MarkDisputed(ctx, matchID, uuid.New(), "desync")
		require.NoError(t, err)
		_, err = h.matches.VoidMatch(ctx, matchID, uuid.New(), "replay unusable, stakes returned")
		require.NoError(t, err)

		assert.Equal(t, int64(2500), h.balance(t, creator.ID))
		assert.Equal(t, int64(2500), h.balance(t, opponent.ID))
	})

	t.Run("suspended and underfunded players are rejected without side effects", func(t *testing.T) {
		creator := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 5000)
		suspended := testutil.SeedSuspendedUser(t, h.db.DB, 5000)
		poor := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 999)

		detail, err := h.matches.CreateMatch(ctx, service.CreateMatchRequest{CreatorID: creator.ID, StakeAmount: 1000})
		require.NoError(t, err)

		_, err = h.matches.AcceptChallenge(ctx, detail.Match.ID, suspended.ID)
		assert.ErrorIs(t, err, service.ErrUserSuspended)
		assert.Equal(t, int64(5000), h.balance(t, suspended.ID))

		_, err = h.matches.AcceptChallenge(ctx, detail.Match.ID, poor.ID)
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)
		assert.Equal(t, int64(999), h.balance(t, poor.ID))

		got, err := h.matches.GetMatch(ctx, detail.Match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusAwaitingOpponent, got.Match.Status)
		assert.Len(t, got.Holds, 1)
	})

	t.Run("team match splits the payout across the winning team", func(t *testing.T) {
		captainA := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 1000)
		mateA := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 1000)
		captainB := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 1000)
		mateB := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 1000)

		detail, err := h.matches.CreateMatch(ctx, service.CreateMatchRequest{
			CreatorID: captainA.ID, StakeAmount: 500, MatchType: models.MatchTypeTeam, TeamSize: 2,
		})
		require.NoError(t, err)
		matchID := detail.Match.ID

		_, err = h.matches.JoinTeamMatch(ctx, matchID, mateA.ID, models.TeamA)
		require.NoError(t, err)
		_, err = h.matches.JoinTeamMatch(ctx, matchID, captainB.ID, models.TeamB)
		require.NoError(t, err)
		started, err := h.matches.JoinTeamMatch(ctx, matchID, mateB.ID, models.TeamB)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusInProgress, started.Match.Status)

		_, err = h.matches.MarkDone(ctx, matchID, mateB.ID)
		require.NoError(t, err)

		// pot 2000, fee 100, payout 1900 split 950/950
		result, err := h.matches.SettleMatch(ctx, service.SettleMatchRequest{MatchID: matchID, WinnerID: captainB.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1900), result.Payout)

		assert.Equal(t, int64(500), h.balance(t, captainA.ID))
		assert.Equal(t, int64(500), h.balance(t, mateA.ID))
		assert.Equal(t, int64(1450), h.balance(t, captainB.ID))
		assert.Equal(t, int64(1450), h.balance(t, mateB.ID))
	})
}

func TestReconciliation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	h := newEscrowHarness(t)
	testutil.AllowLegacyDuplicatePayouts(t, h.db.DB)
	ctx := context.Background()

	winner := testutil.SeedUser(t, h.db.DB, models.UserRoleUser, 0)
	testutil.SeedMatchWin(t, h.db.DB, 9001, winner.ID, 500)
	testutil.SeedMatchWin(t, h.db.DB, 9001, winner.ID, 500)
	testutil.SeedMatchWin(t, h.db.DB, 9001, winner.ID, 500)

	report, err := h.reconciliation.AnalyzeDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.DuplicatesFound)
	assert.Equal(t, int64(1000), report.AmountRecoverable)

	fixed, err := h.reconciliation.FixDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fixed.DuplicatesRemoved)
	assert.Equal(t, int64(1000), fixed.AmountRecovered)
	assert.Empty(t, fixed.Errors)

	again, err := h.reconciliation.AnalyzeDuplicates(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.DuplicatesFound)
	assert.Equal(t, 1, again.MatchesScanned)
}
