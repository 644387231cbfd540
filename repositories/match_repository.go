package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchVersionConflict = errors.New("match was modified concurrently")
	ErrMatchPlayerInvalid   = errors.New("match player conflict or invalid")
	ErrMatchSeasonInvalid   = errors.New("match season conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// Update persists every mutable field of the match, guarded by the
	// optimistic version check: the row is written only when its stored
	// version still equals match.Version, and the version is bumped.
	Update(ctx context.Context, match *models.Match) error
	ListActiveBySeason(ctx context.Context, seasonID int) ([]*models.Match, error)
	GetActiveByPlayer(ctx context.Context, playerID int) (*models.Match, error)
	CountBySeasonAndStatus(ctx context.Context, seasonID int, status *models.MatchStatus) (int, error)
}

type postgresMatchRepository struct {
	db SQLExecutor
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, guild_id, channel_id, season_id, player1_id, player2_id, format,
	status, current_stage, draft_link, first_player_id, winner_id,
	annul_reason, current_game, version, created_at, completed_at,
	referee_id, intervention_reason, intervention_stage, intervention_at,
	resolution_details, intervention_resolved_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.GuildID, &m.ChannelID, &m.SeasonID, &m.Player1ID, &m.Player2ID,
		&m.Format, &m.Status, &m.CurrentStage, &m.DraftLink, &m.FirstPlayerID,
		&m.WinnerID, &m.AnnulReason, &m.CurrentGame, &m.Version, &m.CreatedAt,
		&m.CompletedAt, &m.RefereeID, &m.InterventionReason, &m.InterventionStage,
		&m.InterventionAt, &m.ResolutionDetails, &m.InterventionResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
			(guild_id, channel_id, season_id, player1_id, player2_id, format,
			 status, current_stage, current_game)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, version, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.GuildID,
		match.ChannelID,
		match.SeasonID,
		match.Player1ID,
		match.Player2ID,
		match.Format,
		match.Status,
		match.CurrentStage,
		match.CurrentGame,
	).Scan(&match.ID, &match.Version, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches SET
			status = $1, current_stage = $2, draft_link = $3, first_player_id = $4,
			winner_id = $5, annul_reason = $6, current_game = $7, completed_at = $8,
			referee_id = $9, intervention_reason = $10, intervention_stage = $11,
			intervention_at = $12, resolution_details = $13,
			intervention_resolved_at = $14, version = version + 1
		WHERE id = $15 AND version = $16`

	result, err := r.db.ExecContext(ctx, query,
		match.Status,
		match.CurrentStage,
		match.DraftLink,
		match.FirstPlayerID,
		match.WinnerID,
		match.AnnulReason,
		match.CurrentGame,
		match.CompletedAt,
		match.RefereeID,
		match.InterventionReason,
		match.InterventionStage,
		match.InterventionAt,
		match.ResolutionDetails,
		match.InterventionResolvedAt,
		match.ID,
		match.Version,
	)
	if err != nil {
		return r.handleMatchError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Either the match is gone or someone got there first.
		if _, getErr := r.GetByID(ctx, match.ID); errors.Is(getErr, ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return ErrMatchVersionConflict
	}
	match.Version++
	return nil
}

func (r *postgresMatchRepository) ListActiveBySeason(ctx context.Context, seasonID int) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE season_id = $1 AND status NOT IN ($2, $3)
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, seasonID,
		models.MatchStatusCompleted, models.MatchStatusAnnulled)
	if err != nil {
		return nil, fmt.Errorf("failed to query active matches for season %d: %w", seasonID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) GetActiveByPlayer(ctx context.Context, playerID int) (*models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE (player1_id = $1 OR player2_id = $1) AND status NOT IN ($2, $3)
		ORDER BY id DESC
		LIMIT 1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, playerID,
		models.MatchStatusCompleted, models.MatchStatusAnnulled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan active match for player %d: %w", playerID, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) CountBySeasonAndStatus(ctx context.Context, seasonID int, status *models.MatchStatus) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE season_id = $1`
	args := []interface{}{seasonID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches for season %d: %w", seasonID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_player1_id_fkey", "matches_player2_id_fkey", "matches_first_player_id_fkey", "matches_winner_id_fkey":
			return ErrMatchPlayerInvalid
		case "matches_season_id_fkey":
			return ErrMatchSeasonInvalid
		}
	}
	return err
}
