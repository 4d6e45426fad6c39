package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus represents the lifecycle state of a match
type MatchStatus string

const (
	MatchStatusAwaitingOpponent MatchStatus = "awaiting_opponent"
	MatchStatusInProgress       MatchStatus = "in_progress"
	MatchStatusPendingResult    MatchStatus = "pending_result"
	MatchStatusDisputed         MatchStatus = "disputed"
	MatchStatusCompleted        MatchStatus = "completed"
	MatchStatusCancelled        MatchStatus = "cancelled"
)

// MatchType distinguishes head-to-head from team matches
type MatchType string

const (
	MatchTypeOneVOne MatchType = "1v1"
	MatchTypeTeam    MatchType = "team"
)

// MatchOutcome records how a completed match ended
type MatchOutcome string

const (
	MatchOutcomeWin  MatchOutcome = "win"
	MatchOutcomeDraw MatchOutcome = "draw"
)

// Team identifies a side in a match
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// ParticipantRole is a participant's role within their team
type ParticipantRole string

const (
	ParticipantRoleCaptain ParticipantRole = "captain"
	ParticipantRoleMember  ParticipantRole = "member"
)

// matchTransitions lists every legal status change
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusAwaitingOpponent: {MatchStatusInProgress, MatchStatusCancelled},
	MatchStatusInProgress:       {MatchStatusPendingResult, MatchStatusDisputed, MatchStatusCompleted},
	MatchStatusPendingResult:    {MatchStatusCompleted, MatchStatusDisputed},
	MatchStatusDisputed:         {MatchStatusCompleted},
}

// CanTransition reports whether a match may move from one status to another
func CanTransition(from, to MatchStatus) bool {
	for _, next := range matchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Match is a staked challenge between two players or two teams
type Match struct {
	ID            int64         `db:"id" json:"id"`
	CreatorID     uuid.UUID     `db:"creator_id" json:"creator_id"`
	OpponentID    *uuid.UUID    `db:"opponent_id" json:"opponent_id,omitempty"`
	StakeAmount   int64         `db:"stake_amount" json:"stake_amount"`
	MatchType     MatchType     `db:"match_type" json:"match_type"`
	TeamSize      int           `db:"team_size" json:"team_size"`
	Game          string        `db:"game" json:"game"`
	Status        MatchStatus   `db:"status" json:"status"`
	WinnerID      *uuid.UUID    `db:"winner_id" json:"winner_id,omitempty"`
	Outcome       *MatchOutcome `db:"outcome" json:"outcome,omitempty"`
	AdminDecision *string       `db:"admin_decision" json:"admin_decision,omitempty"`
	DisputeReason *string       `db:"dispute_reason" json:"dispute_reason,omitempty"`
	DisputedAt    *time.Time    `db:"disputed_at" json:"disputed_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	AcceptedAt    *time.Time    `db:"accepted_at" json:"accepted_at,omitempty"`
	StartedAt     *time.Time    `db:"started_at" json:"started_at,omitempty"`
	CompletedAt   *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt   *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// IsTeamMatch reports whether the match is played between teams
func (m *Match) IsTeamMatch() bool {
	return m.MatchType == MatchTypeTeam
}

// IsTerminal reports whether the match can no longer change state
func (m *Match) IsTerminal() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusCancelled
}

// IsSettleable reports whether a result may be recorded for the match
func (m *Match) IsSettleable() bool {
	return m.Status == MatchStatusPendingResult || m.Status == MatchStatusDisputed
}

// IsPrincipal reports whether userID is the creator or the opponent
func (m *Match) IsPrincipal(userID uuid.UUID) bool {
	if m.CreatorID == userID {
		return true
	}
	return m.OpponentID != nil && *m.OpponentID == userID
}

// CanBeAcceptedBy checks if the challenge is open to userID
func (m *Match) CanBeAcceptedBy(userID uuid.UUID) bool {
	return m.Status == MatchStatusAwaitingOpponent && m.OpponentID == nil && m.CreatorID != userID
}

// CanBeCancelledBy checks if userID may withdraw the challenge
func (m *Match) CanBeCancelledBy(userID uuid.UUID) bool {
	return m.Status == MatchStatusAwaitingOpponent && m.OpponentID == nil && m.CreatorID == userID
}

// MatchParticipant is one player's seat in a match
type MatchParticipant struct {
	MatchID  int64           `db:"match_id" json:"match_id"`
	UserID   uuid.UUID       `db:"user_id" json:"user_id"`
	Team     Team            `db:"team" json:"team"`
	Role     ParticipantRole `db:"role" json:"role"`
	JoinedAt time.Time       `db:"joined_at" json:"joined_at"`
}

// MatchProof is evidence of a result uploaded by a player
type MatchProof struct {
	ID        int64     `db:"id" json:"id"`
	MatchID   int64     `db:"match_id" json:"match_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ProofURL  string    `db:"proof_url" json:"proof_url"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MatchDetail bundles a match with its participants and holds
type MatchDetail struct {
	Match        *Match              `json:"match"`
	Participants []*MatchParticipant `json:"participants"`
	Holds        []*WalletHold       `json:"holds"`
}

// TeamMembers returns the user IDs seated on team
func (d *MatchDetail) TeamMembers(team Team) []uuid.UUID {
	var members []uuid.UUID
	for _, p := range d.Participants {
		if p.Team == team {
			members = append(members, p.UserID)
		}
	}
	return members
}

// Participant returns userID's seat, or nil if they are not in the match
func (d *MatchDetail) Participant(userID uuid.UUID) *MatchParticipant {
	for _, p := range d.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// HoldFor returns userID's hold, or nil
func (d *MatchDetail) HoldFor(userID uuid.UUID) *WalletHold {
	for _, h := range d.Holds {
		if h.UserID == userID {
			return h
		}
	}
	return nil
}
