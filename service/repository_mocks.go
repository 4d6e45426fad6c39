package service

import (
	"context"

	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool, reason *string) error {
	args := m.Called(ctx, id, suspended, reason)
	return args.Error(0)
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) EnsureExists(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockWalletRepository) Debit(ctx context.Context, userID uuid.UUID, amount int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

// MockHoldRepository is a mock implementation of HoldRepository
type MockHoldRepository struct {
	mock.Mock
}

func (m *MockHoldRepository) Create(ctx context.Context, hold *models.WalletHold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockHoldRepository) GetByID(ctx context.Context, id int64) (*models.WalletHold, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletHold), args.Error(1)
}

func (m *MockHoldRepository) GetByMatch(ctx context.Context, matchID int64) ([]*models.WalletHold, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WalletHold), args.Error(1)
}

func (m *MockHoldRepository) MarkReleased(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockHoldRepository) MarkSettled(ctx context.Context, id int64, destination string) (bool, error) {
	args := m.Called(ctx, id, destination)
	return args.Bool(0), args.Error(1)
}

func (m *MockHoldRepository) SumHeldByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) Update(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) TransitionStatus(ctx context.Context, id int64, from []models.MatchStatus, to models.MatchStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) ListOpen(ctx context.Context, limit int) ([]*models.Match, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Match, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) AddParticipant(ctx context.Context, participant *models.MatchParticipant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockMatchRepository) GetParticipants(ctx context.Context, matchID int64) ([]*models.MatchParticipant, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MatchParticipant), args.Error(1)
}

func (m *MockMatchRepository) AddProof(ctx context.Context, proof *models.MatchProof) error {
	args := m.Called(ctx, proof)
	return args.Error(0)
}

func (m *MockMatchRepository) GetProofs(ctx context.Context, matchID int64) ([]*models.MatchProof, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MatchProof), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByMatch(ctx context.Context, matchID int64) ([]*models.Transaction, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListCompletedMatchWins(ctx context.Context) ([]*models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) DeleteDuplicateMatchWin(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockPlatformFeeRepository is a mock implementation of PlatformFeeRepository
type MockPlatformFeeRepository struct {
	mock.Mock
}

func (m *MockPlatformFeeRepository) Create(ctx context.Context, fee *models.PlatformFee) error {
	args := m.Called(ctx, fee)
	return args.Error(0)
}

func (m *MockPlatformFeeRepository) GetByMatch(ctx context.Context, matchID int64) (*models.PlatformFee, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformFee), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// Published returns the events passed to Publish, in order
func (m *MockEventPublisher) Published() []events.Event {
	var published []events.Event
	for _, call := range m.Calls {
		if call.Method == "Publish" {
			published = append(published, call.Arguments.Get(0).(events.Event))
		}
	}
	return published
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Begin, Commit and
// Rollback are mocked; repositories are injected with SetRepositories.
type MockUnitOfWork struct {
	mock.Mock
	userRepo        UserRepository
	walletRepo      WalletRepository
	holdRepo        HoldRepository
	matchRepo       MatchRepository
	transactionRepo TransactionRepository
	platformFeeRepo PlatformFeeRepository
	eventBus        EventPublisher
}

// SetRepositories injects the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(user UserRepository, wallet WalletRepository, hold HoldRepository, match MatchRepository, transaction TransactionRepository, platformFee PlatformFeeRepository) {
	m.userRepo = user
	m.walletRepo = wallet
	m.holdRepo = hold
	m.matchRepo = match
	m.transactionRepo = transaction
	m.platformFeeRepo = platformFee
}

// SetEventBus injects the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(publisher EventPublisher) {
	m.eventBus = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository               { return m.userRepo }
func (m *MockUnitOfWork) WalletRepository() WalletRepository           { return m.walletRepo }
func (m *MockUnitOfWork) HoldRepository() HoldRepository               { return m.holdRepo }
func (m *MockUnitOfWork) MatchRepository() MatchRepository             { return m.matchRepo }
func (m *MockUnitOfWork) TransactionRepository() TransactionRepository { return m.transactionRepo }
func (m *MockUnitOfWork) PlatformFeeRepository() PlatformFeeRepository { return m.platformFeeRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher                     { return m.eventBus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
