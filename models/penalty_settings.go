package models

import (
	"errors"
	"time"
)

var (
	ErrTierThresholdOrder    = errors.New("penalty tier thresholds must be strictly increasing")
	ErrTierThresholdNegative = errors.New("penalty tier threshold must be positive")
	ErrTierPenaltyNegative   = errors.New("penalty tier seconds must not be negative")
	ErrFreeRestartsNegative  = errors.New("free restart count must not be negative")
)

// PenaltyTier maps a restart index threshold to the marginal penalty in
// seconds charged for restarts at or above that threshold (until the next
// tier takes over).
type PenaltyTier struct {
	Threshold int     `json:"threshold"`
	Seconds   float64 `json:"seconds"`
}

// PenaltyTiers is kept sorted by threshold ascending; Validate enforces it.
type PenaltyTiers []PenaltyTier

func (t PenaltyTiers) Validate() error {
	prev := 0
	for _, tier := range t {
		if tier.Threshold <= 0 {
			return ErrTierThresholdNegative
		}
		if tier.Threshold <= prev {
			return ErrTierThresholdOrder
		}
		if tier.Seconds < 0 {
			return ErrTierPenaltyNegative
		}
		prev = tier.Threshold
	}
	return nil
}

// PenaltySettings is the per-guild restart penalty configuration.
type PenaltySettings struct {
	ID      int   `json:"id"`
	GuildID int64 `json:"guild_id"`

	// Restarts up to and including FreeRestarts carry no penalty.
	FreeRestarts int          `json:"free_restarts"`
	Tiers        PenaltyTiers `json:"tiers"`

	// Flat per-restart fallback applied when no tier matches.
	FlatPenaltySeconds float64 `json:"flat_penalty_seconds"`

	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *PenaltySettings) Validate() error {
	if s.FreeRestarts < 0 {
		return ErrFreeRestartsNegative
	}
	if s.FlatPenaltySeconds < 0 {
		return ErrTierPenaltyNegative
	}
	return s.Tiers.Validate()
}
