package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
)

type PendingInputRepository interface {
	// Upsert replaces the player's previous submission of the same kind.
	Upsert(ctx context.Context, input *models.PendingInput) error
	ListByMatchAndKind(ctx context.Context, matchID int, kind models.PendingInputKind) ([]*models.PendingInput, error)
	ClearKind(ctx context.Context, matchID int, kind models.PendingInputKind) error
	ClearMatch(ctx context.Context, matchID int) error
}

type postgresPendingInputRepository struct {
	db SQLExecutor
}

func NewPostgresPendingInputRepository(db *sql.DB) PendingInputRepository {
	return &postgresPendingInputRepository{db: db}
}

func (r *postgresPendingInputRepository) Upsert(ctx context.Context, input *models.PendingInput) error {
	query := `
		INSERT INTO match_inputs (match_id, player_id, kind, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (match_id, player_id, kind) DO UPDATE SET
			value = EXCLUDED.value, created_at = NOW()
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		input.MatchID, input.PlayerID, input.Kind, input.Value,
	).Scan(&input.ID, &input.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert pending input for match %d: %w", input.MatchID, err)
	}
	return nil
}

func (r *postgresPendingInputRepository) ListByMatchAndKind(ctx context.Context, matchID int, kind models.PendingInputKind) ([]*models.PendingInput, error) {
	query := `
		SELECT id, match_id, player_id, kind, value, created_at
		FROM match_inputs
		WHERE match_id = $1 AND kind = $2
		ORDER BY player_id ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending inputs for match %d: %w", matchID, err)
	}
	defer rows.Close()

	inputs := make([]*models.PendingInput, 0, 2)
	for rows.Next() {
		in := &models.PendingInput{}
		if scanErr := rows.Scan(&in.ID, &in.MatchID, &in.PlayerID, &in.Kind, &in.Value, &in.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan pending input row: %w", scanErr)
		}
		inputs = append(inputs, in)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pending input rows iteration: %w", err)
	}
	return inputs, nil
}

func (r *postgresPendingInputRepository) ClearKind(ctx context.Context, matchID int, kind models.PendingInputKind) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM match_inputs WHERE match_id = $1 AND kind = $2`, matchID, kind)
	if err != nil {
		return fmt.Errorf("failed to clear pending inputs for match %d: %w", matchID, err)
	}
	return nil
}

func (r *postgresPendingInputRepository) ClearMatch(ctx context.Context, matchID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM match_inputs WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to clear pending inputs for match %d: %w", matchID, err)
	}
	return nil
}
