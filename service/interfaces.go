package service

import (
	"context"

	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for the user store
type UserRepository interface {
	// GetByID retrieves a user, returning nil if none exists
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email, returning nil if none exists
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create inserts a new user
	Create(ctx context.Context, user *models.User) error

	// SetSuspended flips the suspension flag
	SetSuspended(ctx context.Context, id uuid.UUID, suspended bool, reason *string) error
}

// WalletRepository defines the interface for wallet balances
type WalletRepository interface {
	// GetByUserID returns the wallet, or nil if it has not been created yet
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)

	// EnsureExists creates an empty wallet if the user has none
	EnsureExists(ctx context.Context, userID uuid.UUID) error

	// Debit subtracts amount only if the balance covers it.
	// It returns nil without error when the balance is too low or the wallet is missing.
	Debit(ctx context.Context, userID uuid.UUID, amount int64) (*models.Wallet, error)

	// Credit adds amount, creating the wallet if needed
	Credit(ctx context.Context, userID uuid.UUID, amount int64) (*models.Wallet, error)
}

// HoldRepository defines the interface for escrow holds
type HoldRepository interface {
	// Create inserts a hold in the held state
	Create(ctx context.Context, hold *models.WalletHold) error

	// GetByID retrieves a hold, returning nil if none exists
	GetByID(ctx context.Context, id int64) (*models.WalletHold, error)

	// GetByMatch returns every hold for a match ordered by id
	GetByMatch(ctx context.Context, matchID int64) ([]*models.WalletHold, error)

	// MarkReleased moves a held hold to released; false if it was already terminal
	MarkReleased(ctx context.Context, id int64) (bool, error)

	// MarkSettled moves a held hold to forfeited; false if it was already terminal
	MarkSettled(ctx context.Context, id int64, destination string) (bool, error)

	// SumHeldByUser totals the user's outstanding holds
	SumHeldByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// MatchRepository defines the interface for matches and their seats
type MatchRepository interface {
	// Create inserts a match and fills in its ID and timestamps
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match, returning nil if none exists
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// GetByIDForUpdate retrieves and row-locks a match for the rest of the transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error)

	// Update writes the mutable fields of a match
	Update(ctx context.Context, match *models.Match) error

	// TransitionStatus moves the match to `to` only if its status is one of `from`
	TransitionStatus(ctx context.Context, id int64, from []models.MatchStatus, to models.MatchStatus) (bool, error)

	// ListOpen returns challenges still awaiting an opponent, newest first
	ListOpen(ctx context.Context, limit int) ([]*models.Match, error)

	// ListByUser returns matches a user takes part in, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Match, error)

	// AddParticipant seats a user in a match
	AddParticipant(ctx context.Context, participant *models.MatchParticipant) error

	// GetParticipants returns the seats of a match ordered by join time
	GetParticipants(ctx context.Context, matchID int64) ([]*models.MatchParticipant, error)

	// AddProof stores result evidence
	AddProof(ctx context.Context, proof *models.MatchProof) error

	// GetProofs returns the evidence uploaded for a match
	GetProofs(ctx context.Context, matchID int64) ([]*models.MatchProof, error)
}

// TransactionRepository defines the interface for the transaction ledger
type TransactionRepository interface {
	// Create appends a transaction and fills in its ID, reference code and timestamps
	Create(ctx context.Context, tx *models.Transaction) error

	// GetByUser returns a user's transactions, newest first
	GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error)

	// GetByMatch returns all transactions tagged with a match
	GetByMatch(ctx context.Context, matchID int64) ([]*models.Transaction, error)

	// ListCompletedMatchWins returns every completed match_win ordered by
	// match, user, created_at and id
	ListCompletedMatchWins(ctx context.Context) ([]*models.Transaction, error)

	// DeleteDuplicateMatchWin deletes a match_win row only while an earlier row
	// for the same match and user still exists; false if the guard did not hold
	DeleteDuplicateMatchWin(ctx context.Context, id int64) (bool, error)
}

// PlatformFeeRepository defines the interface for the fee ledger
type PlatformFeeRepository interface {
	// Create records the fee for a match
	Create(ctx context.Context, fee *models.PlatformFee) error

	// GetByMatch returns the fee for a match, or nil
	GetByMatch(ctx context.Context, matchID int64) (*models.PlatformFee, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	WalletRepository() WalletRepository
	HoldRepository() HoldRepository
	MatchRepository() MatchRepository
	TransactionRepository() TransactionRepository
	PlatformFeeRepository() PlatformFeeRepository

	// EventBus returns the transactional event bus
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// WalletService exposes read access to wallets
type WalletService interface {
	// BalanceOf returns the spendable balance, 0 for a user without a wallet
	BalanceOf(ctx context.Context, userID uuid.UUID) (int64, error)

	// GetSummary returns the wallet along with the amount currently held in escrow
	GetSummary(ctx context.Context, userID uuid.UUID) (*models.WalletSummary, error)

	// GetTransactions returns the user's recent transactions
	GetTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Transaction, error)
}

// CreateMatchRequest carries the inputs of a new challenge
type CreateMatchRequest struct {
	CreatorID   uuid.UUID
	StakeAmount int64
	MatchType   models.MatchType
	TeamSize    int
	Game        string
}

// SettleMatchRequest carries a staff decision on a match result
type SettleMatchRequest struct {
	MatchID       int64
	WinnerID      uuid.UUID
	AdminDecision string
	// FeePercentage overrides the configured platform fee when set
	FeePercentage *decimal.Decimal
	ActorID       uuid.UUID
}

// MatchService drives the match lifecycle and its escrow side effects
type MatchService interface {
	CreateMatch(ctx context.Context, req CreateMatchRequest) (*models.MatchDetail, error)
	AcceptChallenge(ctx context.Context, matchID int64, userID uuid.UUID) (*models.MatchDetail, error)
	JoinTeamMatch(ctx context.Context, matchID int64, userID uuid.UUID, team models.Team) (*models.MatchDetail, error)
	CancelMatch(ctx context.Context, matchID int64, userID uuid.UUID) (*models.MatchDetail, error)
	MarkDone(ctx context.Context, matchID int64, userID uuid.UUID) (*models.Match, error)
	UploadProof(ctx context.Context, matchID int64, userID uuid.UUID, proofURL, note string) (*models.MatchProof, error)
	MarkDisputed(ctx context.Context, matchID int64, actorID uuid.UUID, reason string) (*models.Match, error)

	// SettleMatch pays out a win. A retry against an already completed match
	// returns the existing result with AlreadySettled set and ErrSettlementConflict.
	SettleMatch(ctx context.Context, req SettleMatchRequest) (*models.SettlementResult, error)

	// VoidMatch ends a match as a draw and returns every stake
	VoidMatch(ctx context.Context, matchID int64, actorID uuid.UUID, decision string) (*models.SettlementResult, error)

	GetMatch(ctx context.Context, matchID int64) (*models.MatchDetail, error)
	ListOpenChallenges(ctx context.Context, limit int) ([]*models.Match, error)
	ListUserMatches(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Match, error)
}

// ReconciliationService finds and removes duplicate match payouts
type ReconciliationService interface {
	// AnalyzeDuplicates reports duplicate match_win rows without changing anything
	AnalyzeDuplicates(ctx context.Context) (*models.DuplicateReport, error)

	// FixDuplicates deletes every duplicate except the earliest row of each group
	FixDuplicates(ctx context.Context) (*models.DuplicateReport, error)
}

// AccessVia says which path granted staff access
type AccessVia string

const (
	AccessViaRole      AccessVia = "role"
	AccessViaEmergency AccessVia = "emergency"
)

// AccessGrant is the result of a successful staff authorization
type AccessGrant struct {
	UserID uuid.UUID
	Email  string
	Via    AccessVia
}

// AuthorizationService decides who may run staff operations
type AuthorizationService interface {
	AuthorizeStaff(ctx context.Context, userID uuid.UUID, email, operation string) (*AccessGrant, error)
}
