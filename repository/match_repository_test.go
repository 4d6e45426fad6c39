package repository

import (
	"context"
	"testing"

	"challenger/models"
	"challenger/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	matches := NewMatchRepository(testDB.DB)
	holds := NewHoldRepository(testDB.DB)
	ctx := context.Background()

	creator := testutil.SeedUser(t, testDB.DB, models.UserRoleUser, 5000)
	opponent := testutil.SeedUser(t, testDB.DB, models.UserRoleUser, 3000)

	newMatch := func(t *testing.T) *models.Match {
		match := &models.Match{
			CreatorID:   creator.ID,
			StakeAmount: 1000,
			MatchType:   models.MatchTypeOneVOne,
			TeamSize:    1,
			Game:        "cs2",
		}
		require.NoError(t, matches.Create(ctx, match))
		return match
	}

	t.Run("create and read back", func(t *testing.T) {
		match := newMatch(t)
		assert.NotZero(t, match.ID)
		assert.Equal(t, models.MatchStatusAwaitingOpponent, match.Status)

		got, err := matches.GetByID(ctx, match.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, creator.ID, got.CreatorID)
		assert.Nil(t, got.OpponentID)
		assert.Equal(t, "cs2", got.Game)

		missing, err := matches.GetByID(ctx, match.ID+1000)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("update persists lifecycle fields", func(t *testing.T) {
		match := newMatch(t)
		match.OpponentID = &opponent.ID
		match.Status = models.MatchStatusInProgress
		require.NoError(t, matches.Update(ctx, match))

		got, err := matches.GetByIDForUpdate(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusInProgress, got.Status)
		require.NotNil(t, got.OpponentID)
		assert.Equal(t, opponent.ID, *got.OpponentID)
	})

	t.Run("opponent cannot be the creator", func(t *testing.T) {
		match := newMatch(t)
		match.OpponentID = &creator.ID
		match.Status = models.MatchStatusInProgress
		assert.Error(t, matches.Update(ctx, match))
	})

	t.Run("transition is compare-and-set", func(t *testing.T) {
		match := newMatch(t)
		match.OpponentID = &opponent.ID
		match.Status = models.MatchStatusPendingResult
		require.NoError(t, matches.Update(ctx, match))

		from := []models.MatchStatus{models.MatchStatusPendingResult, models.MatchStatusDisputed}
		moved, err := matches.TransitionStatus(ctx, match.ID, from, models.MatchStatusCompleted)
		require.NoError(t, err)
		assert.True(t, moved)

		moved, err = matches.TransitionStatus(ctx, match.ID, from, models.MatchStatusCompleted)
		require.NoError(t, err)
		assert.False(t, moved)
	})

	t.Run("participants and listing", func(t *testing.T) {
		match := newMatch(t)
		require.NoError(t, matches.AddParticipant(ctx, &models.MatchParticipant{
			MatchID: match.ID, UserID: creator.ID, Team: models.TeamA, Role: models.ParticipantRoleCaptain,
		}))
		require.NoError(t, matches.AddParticipant(ctx, &models.MatchParticipant{
			MatchID: match.ID, UserID: opponent.ID, Team: models.TeamB, Role: models.ParticipantRoleCaptain,
		}))

		participants, err := matches.GetParticipants(ctx, match.ID)
		require.NoError(t, err)
		assert.Len(t, participants, 2)

		mine, err := matches.ListByUser(ctx, opponent.ID, 10)
		require.NoError(t, err)
		ids := make([]int64, 0, len(mine))
		for _, m := range mine {
			ids = append(ids, m.ID)
		}
		assert.Contains(t, ids, match.ID)

		open, err := matches.ListOpen(ctx, 100)
		require.NoError(t, err)
		for _, m := range open {
			assert.Equal(t, models.MatchStatusAwaitingOpponent, m.Status)
		}
	})

	t.Run("proofs", func(t *testing.T) {
		match := newMatch(t)
		proof := &models.MatchProof{MatchID: match.ID, UserID: creator.ID, ProofURL: "https://cdn.example.com/a.png"}
		require.NoError(t, matches.AddProof(ctx, proof))
		assert.NotZero(t, proof.ID)

		proofs, err := matches.GetProofs(ctx, match.ID)
		require.NoError(t, err)
		require.Len(t, proofs, 1)
		assert.Equal(t, proof.ProofURL, proofs[0].ProofURL)
	})

	t.Run("holds settle or release exactly once", func(t *testing.T) {
		match := newMatch(t)
		hold := &models.WalletHold{MatchID: match.ID, UserID: creator.ID, Amount: 1000}
		require.NoError(t, holds.Create(ctx, hold))
		assert.Equal(t, models.HoldStatusHeld, hold.Status)

		held, err := holds.SumHeldByUser(ctx, creator.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, held, int64(1000))

		settled, err := holds.MarkSettled(ctx, hold.ID, models.HoldDestinationPot)
		require.NoError(t, err)
		assert.True(t, settled)

		released, err := holds.MarkReleased(ctx, hold.ID)
		require.NoError(t, err)
		assert.False(t, released)

		got, err := holds.GetByID(ctx, hold.ID)
		require.NoError(t, err)
		assert.Equal(t, models.HoldStatusForfeited, got.Status)
		require.NotNil(t, got.SettledTo)
		assert.Equal(t, models.HoldDestinationPot, *got.SettledTo)
		assert.NotNil(t, got.ReleasedAt)

		duplicate := &models.WalletHold{MatchID: match.ID, UserID: creator.ID, Amount: 1000}
		assert.Error(t, holds.Create(ctx, duplicate))
	})
}
