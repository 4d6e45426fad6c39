package repository

import (
	"context"
	"errors"
	"fmt"

	"challenger/database"
	"challenger/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const matchColumns = `
	id, creator_id, opponent_id, stake_amount, match_type, team_size, game, status,
	winner_id, outcome, admin_decision, dispute_reason, disputed_at,
	created_at, accepted_at, started_at, completed_at, cancelled_at`

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.CreatorID,
		&m.OpponentID,
		&m.StakeAmount,
		&m.MatchType,
		&m.TeamSize,
		&m.Game,
		&m.Status,
		&m.WinnerID,
		&m.Outcome,
		&m.AdminDecision,
		&m.DisputeReason,
		&m.DisputedAt,
		&m.CreatedAt,
		&m.AcceptedAt,
		&m.StartedAt,
		&m.CompletedAt,
		&m.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MatchRepository) queryMatches(ctx context.Context, query string, args ...any) ([]*models.Match, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Create inserts a new match
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (creator_id, stake_amount, match_type, team_size, game, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	if match.Status == "" {
		match.Status = models.MatchStatusAwaitingOpponent
	}

	err := r.q.QueryRow(ctx, query,
		match.CreatorID,
		match.StakeAmount,
		match.MatchType,
		match.TeamSize,
		match.Game,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match for creator %s: %w", match.CreatorID, err)
	}
	return nil
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return m, nil
}

// GetByIDForUpdate retrieves a match and locks its row until the transaction ends
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`

	m, err := scanMatch(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return m, nil
}

// Update writes every mutable field of the match
func (r *MatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET opponent_id = $2,
		    status = $3,
		    winner_id = $4,
		    outcome = $5,
		    admin_decision = $6,
		    dispute_reason = $7,
		    disputed_at = $8,
		    accepted_at = $9,
		    started_at = $10,
		    completed_at = $11,
		    cancelled_at = $12
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		match.ID,
		match.OpponentID,
		match.Status,
		match.WinnerID,
		match.Outcome,
		match.AdminDecision,
		match.DisputeReason,
		match.DisputedAt,
		match.AcceptedAt,
		match.StartedAt,
		match.CompletedAt,
		match.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("match %d not found", match.ID)
	}
	return nil
}

// TransitionStatus performs a compare-and-set on the match status
func (r *MatchRepository) TransitionStatus(ctx context.Context, id int64, from []models.MatchStatus, to models.MatchStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	query := `
		UPDATE matches
		SET status = $2
		WHERE id = $1 AND status::text = ANY($3::text[])
	`

	result, err := r.q.Exec(ctx, query, id, to, allowed)
	if err != nil {
		return false, fmt.Errorf("failed to transition match %d to %s: %w", id, to, err)
	}
	return result.RowsAffected() == 1, nil
}

// ListOpen returns open challenges
func (r *MatchRepository) ListOpen(ctx context.Context, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'awaiting_opponent'
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	matches, err := r.queryMatches(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}
	return matches, nil
}

// ListByUser returns matches where the user holds a seat
func (r *MatchRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE id IN (SELECT match_id FROM match_participants WHERE user_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	matches, err := r.queryMatches(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for user %s: %w", userID, err)
	}
	return matches, nil
}

// AddParticipant seats a user in a match
func (r *MatchRepository) AddParticipant(ctx context.Context, p *models.MatchParticipant) error {
	query := `
		INSERT INTO match_participants (match_id, user_id, team, role)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at
	`

	err := r.q.QueryRow(ctx, query, p.MatchID, p.UserID, p.Team, p.Role).Scan(&p.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add participant %s to match %d: %w", p.UserID, p.MatchID, err)
	}
	return nil
}

// GetParticipants returns the seats of a match
func (r *MatchRepository) GetParticipants(ctx context.Context, matchID int64) ([]*models.MatchParticipant, error) {
	query := `
		SELECT match_id, user_id, team, role, joined_at
		FROM match_participants
		WHERE match_id = $1
		ORDER BY joined_at, user_id
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var participants []*models.MatchParticipant
	for rows.Next() {
		var p models.MatchParticipant
		if err := rows.Scan(&p.MatchID, &p.UserID, &p.Team, &p.Role, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

// AddProof stores result evidence
func (r *MatchRepository) AddProof(ctx context.Context, proof *models.MatchProof) error {
	query := `
		INSERT INTO match_proofs (match_id, user_id, proof_url, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, proof.MatchID, proof.UserID, proof.ProofURL, proof.Note).
		Scan(&proof.ID, &proof.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add proof to match %d: %w", proof.MatchID, err)
	}
	return nil
}

// GetProofs returns the evidence uploaded for a match
func (r *MatchRepository) GetProofs(ctx context.Context, matchID int64) ([]*models.MatchProof, error) {
	query := `
		SELECT id, match_id, user_id, proof_url, note, created_at
		FROM match_proofs
		WHERE match_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proofs for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var proofs []*models.MatchProof
	for rows.Next() {
		var p models.MatchProof
		if err := rows.Scan(&p.ID, &p.MatchID, &p.UserID, &p.ProofURL, &p.Note, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan proof: %w", err)
		}
		proofs = append(proofs, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proofs: %w", err)
	}
	return proofs, nil
}
