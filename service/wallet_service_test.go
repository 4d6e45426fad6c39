package service

import (
	"context"
	"testing"

	"challenger/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWalletService_BalanceOf(t *testing.T) {
	ctx := context.Background()

	t.Run("missing wallet reads as zero", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewWalletService(m.factory)
		userID := uuid.New()
		m.wallets.On("GetByUserID", mock.Anything, userID).Return(nil, nil)

		balance, err := svc.BalanceOf(ctx, userID)

		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("existing wallet", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewWalletService(m.factory)
		userID := uuid.New()
		m.wallets.On("GetByUserID", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 4000}, nil)

		balance, err := svc.BalanceOf(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, int64(4000), balance)
	})
}

func TestWalletService_GetSummary(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewWalletService(m.factory)
	userID := uuid.New()
	m.wallets.On("GetByUserID", mock.Anything, userID).Return(&models.Wallet{UserID: userID, Balance: 4000}, nil)
	m.holds.On("SumHeldByUser", mock.Anything, userID).Return(int64(1000), nil)

	summary, err := svc.GetSummary(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, int64(4000), summary.Balance)
	assert.Equal(t, int64(1000), summary.HeldAmount)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestWalletService_GetTransactions(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewWalletService(m.factory)
	userID := uuid.New()
	m.transactions.On("GetByUser", mock.Anything, userID, defaultListLimit).Return([]*models.Transaction{{ID: 1}}, nil)

	transactions, err := svc.GetTransactions(ctx, userID, 0)

	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}
