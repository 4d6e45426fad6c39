package service

import (
	"context"
	"fmt"

	"challenger/models"

	"github.com/google/uuid"
)

type walletService struct {
	uowFactory UnitOfWorkFactory
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory) WalletService {
	return &walletService{uowFactory: uowFactory}
}

func (s *walletService) BalanceOf(ctx context.Context, userID uuid.UUID) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return BalanceOf(ctx, uow, userID)
}

// GetSummary returns the spendable balance together with the escrowed total.
// A user without a wallet gets a zero summary.
func (s *walletService) GetSummary(ctx context.Context, userID uuid.UUID) (*models.WalletSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	held, err := uow.HoldRepository().SumHeldByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum holds: %w", err)
	}

	summary := &models.WalletSummary{HeldAmount: held}
	if wallet != nil {
		summary.Wallet = *wallet
	} else {
		summary.UserID = userID
	}
	return summary, nil
}

func (s *walletService) GetTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	transactions, err := uow.TransactionRepository().GetByUser(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}
