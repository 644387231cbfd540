package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/ladder-system/events"
	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/notifications"
	"github.com/Dosada05/ladder-system/repositories"
)

// MatchAnnuller is the narrow slice of MatchService the season sweep needs
// to force-close matches that outlive their season.
type MatchAnnuller interface {
	Annul(ctx context.Context, matchID int, refereeID *int, reason string) error
}

type CreateSeasonParams struct {
	Name                 string
	StartDate            time.Time
	EndDate              time.Time
	InitialRating        float64
	KFactorNew           float64
	KFactorEstablished   float64
	EstablishedThreshold int
	WarningThresholdDays int
	EndingThresholdDays  int
}

type SeasonService interface {
	CreateSeason(ctx context.Context, p CreateSeasonParams) (*models.Season, error)
	GetActive(ctx context.Context) (*models.Season, error)
	// RunSweep advances the active season through its end-of-life phases:
	// warning, ending (new matches blocked), then ended with remaining
	// matches annulled and ratings locked.
	RunSweep(ctx context.Context, now time.Time) error
	ForceEnd(ctx context.Context, seasonID int, reason string) error
}

type seasonService struct {
	seasonRepo repositories.SeasonRepository
	matchRepo  repositories.MatchRepository
	annuller   MatchAnnuller
	notifier   notifications.Notifier
	bus        *events.Bus
	logger     *slog.Logger
}

func NewSeasonService(
	seasonRepo repositories.SeasonRepository,
	matchRepo repositories.MatchRepository,
	annuller MatchAnnuller,
	notifier notifications.Notifier,
	bus *events.Bus,
	logger *slog.Logger,
) SeasonService {
	return &seasonService{
		seasonRepo: seasonRepo,
		matchRepo:  matchRepo,
		annuller:   annuller,
		notifier:   notifier,
		bus:        bus,
		logger:     logger,
	}
}

func (s *seasonService) CreateSeason(ctx context.Context, p CreateSeasonParams) (*models.Season, error) {
	if !p.EndDate.After(p.StartDate) {
		return nil, ErrSeasonDates
	}

	season := &models.Season{
		Name:                 p.Name,
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		IsActive:             true,
		InitialRating:        p.InitialRating,
		KFactorNew:           p.KFactorNew,
		KFactorEstablished:   p.KFactorEstablished,
		EstablishedThreshold: p.EstablishedThreshold,
		WarningThresholdDays: p.WarningThresholdDays,
		EndingThresholdDays:  p.EndingThresholdDays,
	}
	if season.InitialRating == 0 {
		season.InitialRating = 1500
	}
	if season.KFactorNew == 0 {
		season.KFactorNew = 40
	}
	if season.KFactorEstablished == 0 {
		season.KFactorEstablished = 20
	}
	if season.EstablishedThreshold == 0 {
		season.EstablishedThreshold = 10
	}
	if season.WarningThresholdDays == 0 {
		season.WarningThresholdDays = 7
	}
	if season.EndingThresholdDays == 0 {
		season.EndingThresholdDays = 2
	}

	if err := s.seasonRepo.Create(ctx, season); err != nil {
		return nil, err
	}
	s.logger.Info("season created", "season_id", season.ID, "name", season.Name,
		"end_date", season.EndDate)
	return season, nil
}

func (s *seasonService) GetActive(ctx context.Context) (*models.Season, error) {
	return s.seasonRepo.GetActive(ctx)
}

func (s *seasonService) RunSweep(ctx context.Context, now time.Time) error {
	season, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil
		}
		return err
	}

	if now.After(season.EndDate) {
		return s.endSeason(ctx, season, now, "season ended")
	}

	days := season.DaysUntilEnd(now)
	changed := false

	if days <= season.WarningThresholdDays && !season.WarningSent {
		if err = s.sendWarnings(ctx, season, days); err != nil {
			s.logger.Warn("season warning fan-out incomplete", "season_id", season.ID, "error", err)
		}
		season.WarningSent = true
		changed = true
		s.bus.Publish(events.Event{Type: events.TypeSeasonWarning, SeasonID: season.ID, Payload: season})
	}

	if days <= season.EndingThresholdDays && !season.IsEnding {
		season.IsEnding = true
		season.NewMatchesBlocked = true
		changed = true
		s.logger.Info("season entering ending phase", "season_id", season.ID, "days_left", days)
		s.bus.Publish(events.Event{Type: events.TypeSeasonEnding, SeasonID: season.ID, Payload: season})
	}

	if changed {
		return s.seasonRepo.Update(ctx, season)
	}
	return nil
}

// sendWarnings notifies every active match in parallel that the season is
// closing soon.
func (s *seasonService) sendWarnings(ctx context.Context, season *models.Season, daysLeft int) error {
	matches, err := s.matchRepo.ListActiveBySeason(ctx, season.ID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, match := range matches {
		match := match
		g.Go(func() error {
			msg := fmt.Sprintf("Season %q ends in %d day(s). Match #%d must finish before the deadline or it will be annulled.",
				season.Name, daysLeft, match.ID)
			return s.notifier.Notify(gctx, msg)
		})
	}
	return g.Wait()
}

func (s *seasonService) endSeason(ctx context.Context, season *models.Season, now time.Time, reason string) error {
	matches, err := s.matchRepo.ListActiveBySeason(ctx, season.ID)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err = s.annuller.Annul(ctx, match.ID, nil, reason); err != nil {
			s.logger.Error("failed to annul match at season end",
				"match_id", match.ID, "error", err)
		}
	}

	season.IsActive = false
	season.IsEnding = true
	season.RatingLocked = true
	season.NewMatchesBlocked = true
	season.EndedAt = &now
	if err = s.seasonRepo.Update(ctx, season); err != nil {
		return err
	}

	s.logger.Info("season ended", "season_id", season.ID, "annulled_matches", len(matches))
	s.bus.Publish(events.Event{Type: events.TypeSeasonEnded, SeasonID: season.ID, Payload: season})
	return nil
}

func (s *seasonService) ForceEnd(ctx context.Context, seasonID int, reason string) error {
	season, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return err
	}
	if !season.IsActive {
		return nil
	}
	return s.endSeason(ctx, season, time.Now(), reason)
}
