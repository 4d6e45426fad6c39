package api

import (
	"context"

	"challenger/models"
	"challenger/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockMatchService struct {
	mock.Mock
}

func (m *mockMatchService) CreateMatch(ctx context.Context, req service.CreateMatchRequest) (*models.MatchDetail, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDetail), args.Error(1)
}

func (m *mockMatchService) AcceptChallenge(ctx context.Context, matchID int64, userID uuid.UUID) (*models.MatchDetail, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDetail), args.Error(1)
}

func (m *mockMatchService) JoinTeamMatch(ctx context.Context, matchID int64, userID uuid.UUID, team models.Team) (*models.MatchDetail, error) {
	args := m.Called(ctx, matchID, userID, team)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDetail), args.Error(1)
}

func (m *mockMatchService) CancelMatch(ctx context.Context, matchID int64, userID uuid.UUID) (*models.MatchDetail, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDetail), args.Error(1)
}

func (m *mockMatchService) MarkDone(ctx context.Context, matchID int64, userID uuid.UUID) (*models.Match, error) {
	args := m.Called(ctx, matchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *mockMatchService) UploadProof(ctx context.Context, matchID int64, userID uuid.UUID, proofURL, note string) (*models.MatchProof, error) {
	args := m.Called(ctx, matchID, userID, proofURL, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchProof), args.Error(1)
}

func (m *mockMatchService) MarkDisputed(ctx context.Context, matchID int64, actorID uuid.UUID, reason string) (*models.Match, error) {
	args := m.Called(ctx, matchID, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *mockMatchService) SettleMatch(ctx context.Context, req service.SettleMatchRequest) (*models.SettlementResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

func (m *mockMatchService) VoidMatch(ctx context.Context, matchID int64, actorID uuid.UUID, decision string) (*models.SettlementResult, error) {
	args := m.Called(ctx, matchID, actorID, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

func (m *mockMatchService) GetMatch(ctx context.Context, matchID int64) (*models.MatchDetail, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDetail), args.Error(1)
}

func (m *mockMatchService) ListOpenChallenges(ctx context.Context, limit int) ([]*models.Match, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *mockMatchService) ListUserMatches(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Match, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

type mockWalletService struct {
	mock.Mock
}

func (m *mockWalletService) BalanceOf(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockWalletService) GetSummary(ctx context.Context, userID uuid.UUID) (*models.WalletSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletSummary), args.Error(1)
}

func (m *mockWalletService) GetTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

type mockReconciliationService struct {
	mock.Mock
}

func (m *mockReconciliationService) AnalyzeDuplicates(ctx context.Context) (*models.DuplicateReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DuplicateReport), args.Error(1)
}

func (m *mockReconciliationService) FixDuplicates(ctx context.Context) (*models.DuplicateReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DuplicateReport), args.Error(1)
}

type mockAuthorizationService struct {
	mock.Mock
}

func (m *mockAuthorizationService) AuthorizeStaff(ctx context.Context, userID uuid.UUID, email, operation string) (*service.AccessGrant, error) {
	args := m.Called(ctx, userID, email, operation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessGrant), args.Error(1)
}
