package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"challenger/config"
	"challenger/events"
	"challenger/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type matchService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewMatchService creates a new match service
func NewMatchService(uowFactory UnitOfWorkFactory, cfg *config.Config) MatchService {
	return &matchService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// lockMatch loads and row-locks a match, mapping a missing row to ErrMatchNotFound
func lockMatch(ctx context.Context, uow UnitOfWork, matchID int64) (*models.Match, error) {
	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	return match, nil
}

// loadDetail reads the seats and holds of a match
func loadDetail(ctx context.Context, uow UnitOfWork, match *models.Match) (*models.MatchDetail, error) {
	participants, err := uow.MatchRepository().GetParticipants(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	holds, err := uow.HoldRepository().GetByMatch(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holds: %w", err)
	}
	return &models.MatchDetail{
		Match:        match,
		Participants: participants,
		Holds:        holds,
	}, nil
}

func publishTransition(uow UnitOfWork, match *models.Match, from models.MatchStatus, actorID uuid.UUID) {
	uow.EventBus().Publish(events.MatchStateChangedEvent{
		MatchID:     match.ID,
		OldStatus:   from,
		NewStatus:   match.Status,
		ActorID:     actorID,
		StakeAmount: match.StakeAmount,
		MatchType:   match.MatchType,
	})
}

// transition moves the in-memory match to `to`, enforcing the lifecycle table
func transition(match *models.Match, to models.MatchStatus) error {
	if !models.CanTransition(match.Status, to) {
		return fmt.Errorf("%w: cannot move match %d from %s to %s", ErrInvalidState, match.ID, match.Status, to)
	}
	match.Status = to
	return nil
}

// CreateMatch opens a challenge and escrows the creator's stake
func (s *matchService) CreateMatch(ctx context.Context, req CreateMatchRequest) (*models.MatchDetail, error) {
	if req.MatchType == "" {
		req.MatchType = models.MatchTypeOneVOne
	}

	switch req.MatchType {
	case models.MatchTypeOneVOne:
		req.TeamSize = 1
	case models.MatchTypeTeam:
		if req.TeamSize < 2 || req.TeamSize > s.config.MaxTeamSize {
			return nil, fmt.Errorf("%w: team size must be between 2 and %d", ErrInvalidTeamSize, s.config.MaxTeamSize)
		}
	default:
		return nil, fmt.Errorf("unknown match type %q", req.MatchType)
	}

	if req.StakeAmount < s.config.MinStakeAmount {
		return nil, fmt.Errorf("%w: minimum is %d", ErrStakeBelowMinimum, s.config.MinStakeAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireActiveUser(ctx, uow, req.CreatorID); err != nil {
		return nil, err
	}

	match := &models.Match{
		CreatorID:   req.CreatorID,
		StakeAmount: req.StakeAmount,
		MatchType:   req.MatchType,
		TeamSize:    req.TeamSize,
		Game:        strings.TrimSpace(req.Game),
		Status:      models.MatchStatusAwaitingOpponent,
	}
	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	participant := &models.MatchParticipant{
		MatchID: match.ID,
		UserID:  req.CreatorID,
		Team:    models.TeamA,
		Role:    models.ParticipantRoleCaptain,
	}
	if err := uow.MatchRepository().AddParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to seat creator: %w", err)
	}

	hold, err := PlaceHold(ctx, uow, match.ID, req.CreatorID, req.StakeAmount)
	if err != nil {
		return nil, err
	}

	publishTransition(uow, match, "", req.CreatorID)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":   match.ID,
		"creatorID": req.CreatorID,
		"stake":     req.StakeAmount,
		"matchType": req.MatchType,
	}).Info("Match created")

	return &models.MatchDetail{
		Match:        match,
		Participants: []*models.MatchParticipant{participant},
		Holds:        []*models.WalletHold{hold},
	}, nil
}

// AcceptChallenge seats an opponent in a 1v1 challenge and starts the match
func (s *matchService) AcceptChallenge(ctx context.Context, matchID int64, userID uuid.UUID) (*models.MatchDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	if match.IsTeamMatch() {
		return nil, fmt.Errorf("%w: team matches are joined per team", ErrInvalidState)
	}
	if match.CreatorID == userID {
		return nil, fmt.Errorf("%w: cannot accept your own challenge", ErrInvalidParticipant)
	}
	if !match.CanBeAcceptedBy(userID) {
		return nil, ErrChallengeUnavailable
	}

	if _, err := requireActiveUser(ctx, uow, userID); err != nil {
		return nil, err
	}

	if _, err := PlaceHold(ctx, uow, match.ID, userID, match.StakeAmount); err != nil {
		return nil, err
	}

	if err := uow.MatchRepository().AddParticipant(ctx, &models.MatchParticipant{
		MatchID: match.ID,
		UserID:  userID,
		Team:    models.TeamB,
		Role:    models.ParticipantRoleCaptain,
	}); err != nil {
		return nil, fmt.Errorf("failed to seat opponent: %w", err)
	}

	from := match.Status
	if err := transition(match, models.MatchStatusInProgress); err != nil {
		return nil, err
	}
	now := time.Now()
	match.OpponentID = &userID
	match.AcceptedAt = &now
	match.StartedAt = &now

	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	detail, err := loadDetail(ctx, uow, match)
	if err != nil {
		return nil, err
	}

	publishTransition(uow, match, from, userID)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":    match.ID,
		"opponentID": userID,
	}).Info("Challenge accepted")

	return detail, nil
}

// JoinTeamMatch seats a player on a team. The match starts once both teams are full.
func (s *matchService) JoinTeamMatch(ctx context.Context, matchID int64, userID uuid.UUID, team models.Team) (*models.MatchDetail, error) {
	if team != models.TeamA && team != models.TeamB {
		return nil, fmt.Errorf("%w: unknown team %q", ErrInvalidParticipant, team)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	if !match.IsTeamMatch() {
		return nil, fmt.Errorf("%w: match %d is not a team match", ErrInvalidState, matchID)
	}
	if match.Status != models.MatchStatusAwaitingOpponent {
		return nil, ErrChallengeUnavailable
	}

	detail, err := loadDetail(ctx, uow, match)
	if err != nil {
		return nil, err
	}
	if detail.Participant(userID) != nil {
		return nil, fmt.Errorf("%w: already seated in match %d", ErrInvalidParticipant, matchID)
	}

	members := detail.TeamMembers(team)
	if len(members) >= match.TeamSize {
		return nil, ErrTeamFull
	}

	if _, err := requireActiveUser(ctx, uow, userID); err != nil {
		return nil, err
	}

	hold, err := PlaceHold(ctx, uow, match.ID, userID, match.StakeAmount)
	if err != nil {
		return nil, err
	}

	role := models.ParticipantRoleMember
	if len(members) == 0 {
		role = models.ParticipantRoleCaptain
	}
	participant := &models.MatchParticipant{
		MatchID: match.ID,
		UserID:  userID,
		Team:    team,
		Role:    role,
	}
	if err := uow.MatchRepository().AddParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to seat participant: %w", err)
	}
	detail.Participants = append(detail.Participants, participant)
	detail.Holds = append(detail.Holds, hold)

	full := len(detail.TeamMembers(models.TeamA)) == match.TeamSize &&
		len(detail.TeamMembers(models.TeamB)) == match.TeamSize
	if full {
		var captainB *uuid.UUID
		for _, p := range detail.Participants {
			if p.Team == models.TeamB && p.Role == models.ParticipantRoleCaptain {
				id := p.UserID
				captainB = &id
				break
			}
		}

		from := match.Status
		if err := transition(match, models.MatchStatusInProgress); err != nil {
			return nil, err
		}
		now := time.Now()
		match.OpponentID = captainB
		match.AcceptedAt = &now
		match.StartedAt = &now

		if err := uow.MatchRepository().Update(ctx, match); err != nil {
			return nil, fmt.Errorf("failed to update match: %w", err)
		}
		publishTransition(uow, match, from, userID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID": match.ID,
		"userID":  userID,
		"team":    team,
		"started": full,
	}).Info("Player joined team match")

	return detail, nil
}

// CancelMatch withdraws an unaccepted challenge and returns every stake
func (s *matchService) CancelMatch(ctx context.Context, matchID int64, userID uuid.UUID) (*models.MatchDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	if match.CreatorID != userID {
		return nil, fmt.Errorf("%w: only the creator can cancel", ErrForbidden)
	}
	if !match.CanBeCancelledBy(userID) {
		return nil, fmt.Errorf("%w: match %d is %s", ErrInvalidState, matchID, match.Status)
	}

	released, err := ReleaseMatchHolds(ctx, uow, match.ID)
	if err != nil {
		return nil, err
	}

	from := match.Status
	if err := transition(match, models.MatchStatusCancelled); err != nil {
		return nil, err
	}
	now := time.Now()
	match.CancelledAt = &now

	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	detail, err := loadDetail(ctx, uow, match)
	if err != nil {
		return nil, err
	}

	publishTransition(uow, match, from, userID)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":  match.ID,
		"released": released,
	}).Info("Match cancelled")

	return detail, nil
}

// MarkDone records that a participant finished playing. Calling it again
// once the match awaits a result is a no-op.
func (s *matchService) MarkDone(ctx context.Context, matchID int64, userID uuid.UUID) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	detail, err := loadDetail(ctx, uow, match)
	if err != nil {
		return nil, err
	}
	if detail.Participant(userID) == nil {
		return nil, ErrNotParticipant
	}

	if match.Status == models.MatchStatusPendingResult {
		return match, nil
	}

	from := match.Status
	if err := transition(match, models.MatchStatusPendingResult); err != nil {
		return nil, err
	}
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	publishTransition(uow, match, from, userID)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match, nil
}

// UploadProof stores result evidence. The first proof on a running match
// moves it to pending_result.
func (s *matchService) UploadProof(ctx context.Context, matchID int64, userID uuid.UUID, proofURL, note string) (*models.MatchProof, error) {
	proofURL = strings.TrimSpace(proofURL)
	if proofURL == "" {
		return nil, fmt.Errorf("proof url cannot be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	if !match.IsPrincipal(userID) {
		return nil, ErrNotParticipant
	}
	if match.Status != models.MatchStatusInProgress && match.Status != models.MatchStatusPendingResult {
		return nil, fmt.Errorf("%w: cannot upload proof while match is %s", ErrInvalidState, match.Status)
	}

	proof := &models.MatchProof{
		MatchID:  match.ID,
		UserID:   userID,
		ProofURL: proofURL,
		Note:     strings.TrimSpace(note),
	}
	if err := uow.MatchRepository().AddProof(ctx, proof); err != nil {
		return nil, fmt.Errorf("failed to add proof: %w", err)
	}

	if match.Status == models.MatchStatusInProgress {
		from := match.Status
		if err := transition(match, models.MatchStatusPendingResult); err != nil {
			return nil, err
		}
		if err := uow.MatchRepository().Update(ctx, match); err != nil {
			return nil, fmt.Errorf("failed to update match: %w", err)
		}
		publishTransition(uow, match, from, userID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return proof, nil
}

// MarkDisputed flags a contested result for staff review
func (s *matchService) MarkDisputed(ctx context.Context, matchID int64, actorID uuid.UUID, reason string) (*models.Match, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := lockMatch(ctx, uow, matchID)
	if err != nil {
		return nil, err
	}

	from := match.Status
	if err := transition(match, models.MatchStatusDisputed); err != nil {
		return nil, err
	}
	now := time.Now()
	match.DisputeReason = &reason
	match.DisputedAt = &now

	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	publishTransition(uow, match, from, actorID)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID": match.ID,
		"actorID": actorID,
		"reason":  reason,
	}).Warn("Match disputed")

	return match, nil
}

// GetMatch returns a match with its seats and holds
func (s *matchService) GetMatch(ctx context.Context, matchID int64) (*models.MatchDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	return loadDetail(ctx, uow, match)
}

// ListOpenChallenges returns challenges awaiting an opponent
func (s *matchService) ListOpenChallenges(ctx context.Context, limit int) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListOpen(ctx, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list open challenges: %w", err)
	}
	return matches, nil
}

// ListUserMatches returns the matches a user is seated in
func (s *matchService) ListUserMatches(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListByUser(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list user matches: %w", err)
	}
	return matches, nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
