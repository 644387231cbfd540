package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/ladder-system/events"
	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/notifications"
	"github.com/Dosada05/ladder-system/repositories"
	"github.com/Dosada05/ladder-system/storage"
)

type OpenCaseParams struct {
	MatchID     int
	ReportedBy  int
	Type        models.CaseType
	Description string
}

type ResolveCaseParams struct {
	CaseID     int
	RefereeID  int
	Resolution models.ResolutionType
	Details    string
	Notes      string
	// GameNumber is required for replay resolutions.
	GameNumber int
	// ModifiedResult carries the corrected row for modify resolutions.
	ModifiedResult *models.GameResult
}

type RefereeService interface {
	// OpenCase freezes the match and registers a dispute against it.
	OpenCase(ctx context.Context, p OpenCaseParams) (*models.RefereeCase, error)
	GetCase(ctx context.Context, caseID int) (*models.RefereeCase, error)
	ListOpenCases(ctx context.Context, limit int) ([]*models.RefereeCase, error)
	ListRefereeCases(ctx context.Context, refereeID, limit int) ([]*models.RefereeCase, error)
	// AssignCase claims an opened case for the referee.
	AssignCase(ctx context.Context, caseID, refereeID int) (*models.RefereeCase, error)
	StartResolution(ctx context.Context, caseID, refereeID int) error
	// ResolveCase applies the resolution to the match and closes the case.
	ResolveCase(ctx context.Context, p ResolveCaseParams) (*models.RefereeCase, error)
	AttachEvidence(ctx context.Context, caseID int, filename, contentType string, body io.Reader) (string, error)
}

type refereeService struct {
	caseRepo    repositories.RefereeCaseRepository
	refereeRepo repositories.RefereeRepository
	matchSvc    MatchService
	uploader    storage.FileUploader
	notifier    notifications.Notifier
	bus         *events.Bus
	logger      *slog.Logger
}

func NewRefereeService(
	caseRepo repositories.RefereeCaseRepository,
	refereeRepo repositories.RefereeRepository,
	matchSvc MatchService,
	uploader storage.FileUploader,
	notifier notifications.Notifier,
	bus *events.Bus,
	logger *slog.Logger,
) RefereeService {
	return &refereeService{
		caseRepo:    caseRepo,
		refereeRepo: refereeRepo,
		matchSvc:    matchSvc,
		uploader:    uploader,
		notifier:    notifier,
		bus:         bus,
		logger:      logger,
	}
}

func (s *refereeService) OpenCase(ctx context.Context, p OpenCaseParams) (*models.RefereeCase, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrResolutionUnknown, p.Type)
	}

	match, err := s.matchSvc.GetMatch(ctx, p.MatchID)
	if err != nil {
		return nil, err
	}
	if !match.HasPlayer(p.ReportedBy) {
		return nil, ErrNotMatchParticipant
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchFinished
	}
	if match.Status == models.MatchStatusIntervention {
		return nil, ErrMatchFrozen
	}

	// The case row goes in first: its partial unique index is what enforces
	// one open case per match, and a failed insert must leave the match
	// untouched. The match is frozen only once the case exists.
	c := &models.RefereeCase{
		MatchID:            p.MatchID,
		Type:               p.Type,
		Status:             models.CaseOpened,
		ReportedBy:         p.ReportedBy,
		ProblemDescription: p.Description,
		StageWhenReported:  match.CurrentStage,
	}
	if err = s.caseRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	if err = s.matchSvc.Freeze(ctx, p.MatchID, p.Description); err != nil {
		// The match was completed or frozen concurrently; retire the case
		// so the open-case slot frees up again.
		c.Status = models.CaseClosed
		if closeErr := s.caseRepo.Update(ctx, c); closeErr != nil {
			s.logger.Error("failed to close case after freeze failure",
				"case_id", c.ID, "match_id", p.MatchID, "error", closeErr)
		}
		return nil, err
	}

	s.logger.Info("referee case opened",
		"case_id", c.ID, "match_id", p.MatchID, "type", p.Type)
	s.bus.Publish(events.Event{Type: events.TypeRefereeCalled, MatchID: p.MatchID, Payload: c})

	msg := fmt.Sprintf("Referee needed: case #%d (%s) opened for match #%d.", c.ID, p.Type, p.MatchID)
	if err = s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn("failed to notify referees about new case", "case_id", c.ID, "error", err)
	}
	return c, nil
}

func (s *refereeService) GetCase(ctx context.Context, caseID int) (*models.RefereeCase, error) {
	return s.caseRepo.GetByID(ctx, caseID)
}

func (s *refereeService) ListOpenCases(ctx context.Context, limit int) ([]*models.RefereeCase, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.caseRepo.ListOpen(ctx, limit)
}

func (s *refereeService) ListRefereeCases(ctx context.Context, refereeID, limit int) ([]*models.RefereeCase, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.caseRepo.ListByReferee(ctx, refereeID, limit)
}

func (s *refereeService) AssignCase(ctx context.Context, caseID, refereeID int) (*models.RefereeCase, error) {
	referee, err := s.refereeRepo.GetByID(ctx, refereeID)
	if err != nil {
		return nil, err
	}
	if !referee.IsActive {
		return nil, ErrRefereeInactive
	}
	if !referee.CanResolveDisputes {
		return nil, ErrPermissionDenied
	}

	if err = s.caseRepo.Assign(ctx, caseID, refereeID); err != nil {
		if errors.Is(err, repositories.ErrCaseAlreadyAssigned) {
			return nil, ErrCaseNotAssignable
		}
		return nil, err
	}

	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("case assigned", "case_id", caseID, "referee_id", refereeID)
	s.bus.Publish(events.Event{Type: events.TypeCaseAssigned, MatchID: c.MatchID, Payload: c})
	return c, nil
}

func (s *refereeService) StartResolution(ctx context.Context, caseID, refereeID int) error {
	c, err := s.loadAssignedCase(ctx, caseID, refereeID)
	if err != nil {
		return err
	}
	if c.Status == models.CaseInProgress {
		return nil
	}

	c.Status = models.CaseInProgress
	return s.caseRepo.Update(ctx, c)
}

func (s *refereeService) ResolveCase(ctx context.Context, p ResolveCaseParams) (*models.RefereeCase, error) {
	if !p.Resolution.Valid() {
		return nil, ErrResolutionUnknown
	}

	c, err := s.loadAssignedCase(ctx, p.CaseID, p.RefereeID)
	if err != nil {
		return nil, err
	}

	referee, err := s.refereeRepo.GetByID(ctx, p.RefereeID)
	if err != nil {
		return nil, err
	}
	if !referee.CanApply(p.Resolution) {
		return nil, ErrPermissionDenied
	}

	annulled := false
	switch p.Resolution {
	case models.ResolutionAnnulMatch:
		if err = s.matchSvc.Annul(ctx, c.MatchID, &p.RefereeID, p.Details); err != nil {
			return nil, err
		}
		annulled = true
	case models.ResolutionReplayGame:
		if err = s.matchSvc.ReplayGame(ctx, c.MatchID, p.GameNumber); err != nil {
			return nil, err
		}
		if err = s.matchSvc.Resume(ctx, c.MatchID, p.RefereeID, p.Details); err != nil {
			return nil, err
		}
	case models.ResolutionModifyResults:
		if p.ModifiedResult != nil {
			if err = s.matchSvc.OverwriteGameResult(ctx, c.MatchID, p.ModifiedResult); err != nil {
				return nil, err
			}
		}
		if err = s.matchSvc.Resume(ctx, c.MatchID, p.RefereeID, p.Details); err != nil {
			return nil, err
		}
	default:
		// continue_match, warning_issued and other all hand the match back
		// at its frozen stage.
		if err = s.matchSvc.Resume(ctx, c.MatchID, p.RefereeID, p.Details); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	c.Status = models.CaseResolved
	c.ResolutionType = &p.Resolution
	if p.Details != "" {
		c.ResolutionDetails = &p.Details
	}
	if p.Notes != "" {
		c.RefereeNotes = &p.Notes
	}
	c.ResolvedAt = &now
	if err = s.caseRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	annulledCount := 0
	if annulled {
		annulledCount = 1
	}
	if err = s.refereeRepo.IncrementCounters(ctx, p.RefereeID, 1, annulledCount); err != nil {
		s.logger.Warn("failed to update referee counters",
			"referee_id", p.RefereeID, "error", err)
	}

	s.logger.Info("case resolved",
		"case_id", c.ID, "match_id", c.MatchID,
		"resolution", p.Resolution, "referee_id", p.RefereeID)
	s.bus.Publish(events.Event{Type: events.TypeCaseResolved, MatchID: c.MatchID, Payload: c})
	return c, nil
}

func (s *refereeService) AttachEvidence(ctx context.Context, caseID int, filename, contentType string, body io.Reader) (string, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return "", err
	}
	if !c.Status.IsOpen() {
		return "", ErrCaseNotResolvable
	}

	key := fmt.Sprintf("cases/%d/%s%s", caseID, uuid.NewString(), path.Ext(filename))
	result, err := s.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return "", err
	}

	c.EvidenceKey = &result.Key
	if err = s.caseRepo.Update(ctx, c); err != nil {
		return "", err
	}
	return result.Location, nil
}

func (s *refereeService) loadAssignedCase(ctx context.Context, caseID, refereeID int) (*models.RefereeCase, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.CanBeResolved() {
		return nil, ErrCaseNotResolvable
	}
	if c.RefereeID == nil || *c.RefereeID != refereeID {
		return nil, ErrNotCaseReferee
	}
	return c, nil
}
