package service

import (
	"testing"
	"time"

	"challenger/config"
	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Test utilities

type serviceMocks struct {
	factory      *MockUnitOfWorkFactory
	uow          *MockUnitOfWork
	users        *MockUserRepository
	wallets      *MockWalletRepository
	holds        *MockHoldRepository
	matches      *MockMatchRepository
	transactions *MockTransactionRepository
	fees         *MockPlatformFeeRepository
	publisher    *MockEventPublisher
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		factory:      new(MockUnitOfWorkFactory),
		uow:          new(MockUnitOfWork),
		users:        new(MockUserRepository),
		wallets:      new(MockWalletRepository),
		holds:        new(MockHoldRepository),
		matches:      new(MockMatchRepository),
		transactions: new(MockTransactionRepository),
		fees:         new(MockPlatformFeeRepository),
		publisher:    new(MockEventPublisher),
	}

	m.uow.SetRepositories(m.users, m.wallets, m.holds, m.matches, m.transactions, m.fees)
	m.uow.SetEventBus(m.publisher)
	m.factory.On("Create").Return(m.uow)

	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Commit").Return(nil).Maybe()
	m.uow.On("Rollback").Return(nil).Maybe()
	m.publisher.On("Publish", mock.Anything).Return()

	return m
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	m.users.AssertExpectations(t)
	m.wallets.AssertExpectations(t)
	m.holds.AssertExpectations(t)
	m.matches.AssertExpectations(t)
	m.transactions.AssertExpectations(t)
	m.fees.AssertExpectations(t)
}

// publishedOfType filters the published events by type
func (m *serviceMocks) publishedOfType(eventType events.EventType) []events.Event {
	var filtered []events.Event
	for _, e := range m.publisher.Published() {
		if e.Type() == eventType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func testConfig() *config.Config {
	return config.NewTestConfig()
}

func createTestUser(role models.UserRole) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    "player@example.com",
		Username: "player",
		Role:     role,
	}
}

func createTestMatch(id int64, creatorID uuid.UUID, status models.MatchStatus, stake int64) *models.Match {
	return &models.Match{
		ID:          id,
		CreatorID:   creatorID,
		StakeAmount: stake,
		MatchType:   models.MatchTypeOneVOne,
		TeamSize:    1,
		Game:        "valorant",
		Status:      status,
		CreatedAt:   time.Now(),
	}
}

func createTestHold(id, matchID int64, userID uuid.UUID, amount int64, status models.HoldStatus) *models.WalletHold {
	return &models.WalletHold{
		ID:      id,
		MatchID: matchID,
		UserID:  userID,
		Amount:  amount,
		Status:  status,
	}
}

func createTestParticipant(matchID int64, userID uuid.UUID, team models.Team) *models.MatchParticipant {
	return &models.MatchParticipant{
		MatchID: matchID,
		UserID:  userID,
		Team:    team,
		Role:    models.ParticipantRoleCaptain,
	}
}

// Mock helper functions

func setupActiveUser(m *serviceMocks, user *models.User) {
	m.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
}

// setupSuccessfulHold wires the wallet and hold calls of PlaceHold.
// balanceAfter is the wallet balance once the stake is debited.
func setupSuccessfulHold(m *serviceMocks, userID uuid.UUID, amount, balanceAfter int64, holdID int64) {
	m.wallets.On("EnsureExists", mock.Anything, userID).Return(nil)
	m.wallets.On("Debit", mock.Anything, userID, amount).
		Return(&models.Wallet{UserID: userID, Balance: balanceAfter}, nil)
	m.holds.On("Create", mock.Anything, mock.MatchedBy(func(h *models.WalletHold) bool {
		return h.UserID == userID && h.Amount == amount
	})).Run(func(args mock.Arguments) {
		hold := args.Get(1).(*models.WalletHold)
		hold.ID = holdID
		hold.Status = models.HoldStatusHeld
	}).Return(nil)
}
