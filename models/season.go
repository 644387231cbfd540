package models

import (
	"fmt"
	"time"
)

// Season is a time-bounded ladder epoch. At most one season is active at a
// time; the lifecycle is one-directional: active -> ending -> ended.
type Season struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	IsActive          bool `json:"is_active"`
	IsEnding          bool `json:"is_ending"`
	RatingLocked      bool `json:"rating_locked"`
	NewMatchesBlocked bool `json:"new_matches_blocked"`
	WarningSent       bool `json:"warning_sent"`

	// Rating parameters.
	InitialRating        float64 `json:"initial_rating"`
	KFactorNew           float64 `json:"k_factor_new"`
	KFactorEstablished   float64 `json:"k_factor_established"`
	EstablishedThreshold int     `json:"established_threshold"`

	// Days before EndDate at which warnings go out / the season starts ending.
	WarningThresholdDays int `json:"warning_threshold_days"`
	EndingThresholdDays  int `json:"ending_threshold_days"`
}

// DaysUntilEnd returns whole days left before EndDate, negative when past.
func (s *Season) DaysUntilEnd(now time.Time) int {
	return int(s.EndDate.Sub(now).Hours() / 24)
}

// KFactorFor picks the K-factor based on the established-player cutoff.
func (s *Season) KFactorFor(gamesPlayed int) float64 {
	if gamesPlayed >= s.EstablishedThreshold {
		return s.KFactorEstablished
	}
	return s.KFactorNew
}

// BlockingReason returns the human-readable reason new matches cannot be
// created, or "" when creation is allowed.
func (s *Season) BlockingReason() string {
	switch {
	case !s.IsActive:
		return "season has ended"
	case s.IsEnding:
		return fmt.Sprintf("season %q is ending, new matches are closed", s.Name)
	case s.NewMatchesBlocked:
		return "new match creation is temporarily blocked"
	}
	return ""
}
