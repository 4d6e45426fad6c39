package repository

import (
	"context"
	"testing"
	"time"

	"challenger/events"
	"challenger/models"
	"challenger/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	bus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	received := make(chan events.Event, 10)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, e events.Event) {
		received <- e
	})

	t.Run("commit persists writes and flushes events", func(t *testing.T) {
		user := testutil.SeedUser(t, testDB.DB, models.UserRoleUser, 100)

		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		_, err := uow.WalletRepository().Credit(ctx, user.ID, 50)
		require.NoError(t, err)
		uow.EventBus().Publish(events.BalanceChangeEvent{UserID: user.ID, Change: 50})
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback())

		assert.Equal(t, int64(150), testutil.WalletBalance(t, testDB.DB, user.ID))
		select {
		case e := <-received:
			assert.Equal(t, user.ID, e.(events.BalanceChangeEvent).UserID)
		case <-time.After(time.Second):
			t.Fatal("event was not delivered after commit")
		}
	})

	t.Run("rollback discards writes and events", func(t *testing.T) {
		user := testutil.SeedUser(t, testDB.DB, models.UserRoleUser, 100)

		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		_, err := uow.WalletRepository().Debit(ctx, user.ID, 100)
		require.NoError(t, err)
		uow.EventBus().Publish(events.BalanceChangeEvent{UserID: user.ID, Change: -100})
		require.NoError(t, uow.Rollback())

		assert.Equal(t, int64(100), testutil.WalletBalance(t, testDB.DB, user.ID))
		select {
		case <-received:
			t.Fatal("event delivered after rollback")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("begin twice fails", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()
		assert.Error(t, uow.Begin(ctx))
	})
}
