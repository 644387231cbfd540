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
	ErrCaseNotFound        = errors.New("referee case not found")
	ErrCaseAlreadyOpen     = errors.New("match already has an open case")
	ErrCaseAlreadyAssigned = errors.New("case was already claimed by another referee")
	ErrCaseMatchInvalid    = errors.New("case references an unknown match")
)

type RefereeCaseRepository interface {
	// Create inserts the case; the partial unique index on open cases per
	// match turns a duplicate into ErrCaseAlreadyOpen.
	Create(ctx context.Context, c *models.RefereeCase) error
	GetByID(ctx context.Context, id int) (*models.RefereeCase, error)
	GetOpenByMatch(ctx context.Context, matchID int) (*models.RefereeCase, error)
	// Assign claims the case for the referee, failing with
	// ErrCaseAlreadyAssigned when the case has left the opened state.
	Assign(ctx context.Context, caseID, refereeID int) error
	Update(ctx context.Context, c *models.RefereeCase) error
	ListOpen(ctx context.Context, limit int) ([]*models.RefereeCase, error)
	ListByReferee(ctx context.Context, refereeID, limit int) ([]*models.RefereeCase, error)
}

type postgresRefereeCaseRepository struct {
	db SQLExecutor
}

func NewPostgresRefereeCaseRepository(db *sql.DB) RefereeCaseRepository {
	return &postgresRefereeCaseRepository{db: db}
}

const caseColumns = `
	id, match_id, case_type, status, reported_by, problem_description,
	evidence_key, stage_when_reported, referee_id, resolution_type,
	resolution_details, referee_notes, created_at, resolved_at`

func scanCase(row interface{ Scan(...interface{}) error }) (*models.RefereeCase, error) {
	c := &models.RefereeCase{}
	err := row.Scan(
		&c.ID, &c.MatchID, &c.Type, &c.Status, &c.ReportedBy, &c.ProblemDescription,
		&c.EvidenceKey, &c.StageWhenReported, &c.RefereeID, &c.ResolutionType,
		&c.ResolutionDetails, &c.RefereeNotes, &c.CreatedAt, &c.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRefereeCaseRepository) Create(ctx context.Context, c *models.RefereeCase) error {
	query := `
		INSERT INTO referee_cases
			(match_id, case_type, status, reported_by, problem_description,
			 evidence_key, stage_when_reported)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.MatchID,
		c.Type,
		c.Status,
		c.ReportedBy,
		c.ProblemDescription,
		c.EvidenceKey,
		c.StageWhenReported,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "referee_cases_open_match_idx":
				return ErrCaseAlreadyOpen
			case "referee_cases_match_id_fkey":
				return ErrCaseMatchInvalid
			}
		}
		return fmt.Errorf("failed to create case for match %d: %w", c.MatchID, err)
	}
	return nil
}

func (r *postgresRefereeCaseRepository) GetByID(ctx context.Context, id int) (*models.RefereeCase, error) {
	query := `SELECT` + caseColumns + ` FROM referee_cases WHERE id = $1`
	c, err := scanCase(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to scan case %d: %w", id, err)
	}
	return c, nil
}

func (r *postgresRefereeCaseRepository) GetOpenByMatch(ctx context.Context, matchID int) (*models.RefereeCase, error) {
	query := `SELECT` + caseColumns + `
		FROM referee_cases
		WHERE match_id = $1 AND status IN ($2, $3, $4)
		ORDER BY id DESC
		LIMIT 1`

	c, err := scanCase(r.db.QueryRowContext(ctx, query, matchID,
		models.CaseOpened, models.CaseAssigned, models.CaseInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to scan open case for match %d: %w", matchID, err)
	}
	return c, nil
}

func (r *postgresRefereeCaseRepository) Assign(ctx context.Context, caseID, refereeID int) error {
	// Compare-and-set on status: only an opened case can be claimed, so two
	// racing referees cannot both win.
	query := `
		UPDATE referee_cases SET referee_id = $1, status = $2
		WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query,
		refereeID, models.CaseAssigned, caseID, models.CaseOpened)
	if err != nil {
		return fmt.Errorf("failed to assign case %d: %w", caseID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, caseID); errors.Is(getErr, ErrCaseNotFound) {
			return ErrCaseNotFound
		}
		return ErrCaseAlreadyAssigned
	}
	return nil
}

func (r *postgresRefereeCaseRepository) Update(ctx context.Context, c *models.RefereeCase) error {
	query := `
		UPDATE referee_cases SET
			status = $1, evidence_key = $2, referee_id = $3, resolution_type = $4,
			resolution_details = $5, referee_notes = $6, resolved_at = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		c.Status,
		c.EvidenceKey,
		c.RefereeID,
		c.ResolutionType,
		c.ResolutionDetails,
		c.RefereeNotes,
		c.ResolvedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update case %d: %w", c.ID, err)
	}
	return checkAffectedRows(result, ErrCaseNotFound)
}

func (r *postgresRefereeCaseRepository) ListOpen(ctx context.Context, limit int) ([]*models.RefereeCase, error) {
	query := `SELECT` + caseColumns + `
		FROM referee_cases
		WHERE status IN ($1, $2, $3)
		ORDER BY created_at ASC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query,
		models.CaseOpened, models.CaseAssigned, models.CaseInProgress, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query open cases: %w", err)
	}
	defer rows.Close()

	return collectCases(rows)
}

func (r *postgresRefereeCaseRepository) ListByReferee(ctx context.Context, refereeID, limit int) ([]*models.RefereeCase, error) {
	query := `SELECT` + caseColumns + `
		FROM referee_cases
		WHERE referee_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, refereeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases for referee %d: %w", refereeID, err)
	}
	defer rows.Close()

	return collectCases(rows)
}

func collectCases(rows *sql.Rows) ([]*models.RefereeCase, error) {
	cases := make([]*models.RefereeCase, 0)
	for rows.Next() {
		c, scanErr := scanCase(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan case row: %w", scanErr)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during case rows iteration: %w", err)
	}
	return cases, nil
}
