package models

import "time"

// Referee is a guild-scoped dispute resolver with a flat capability set.
type Referee struct {
	ID        int    `json:"id"`
	DiscordID int64  `json:"discord_id"`
	GuildID   int64  `json:"guild_id"`
	Username  string `json:"username"`

	IsActive           bool `json:"is_active"`
	IsAdmin            bool `json:"is_admin"`
	CanAnnulMatches    bool `json:"can_annul_matches"`
	CanModifyResults   bool `json:"can_modify_results"`
	CanResolveDisputes bool `json:"can_resolve_disputes"`

	CasesResolved   int `json:"cases_resolved"`
	MatchesAnnulled int `json:"matches_annulled"`

	PasswordHash string    `json:"-"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CanApply reports whether the referee may apply the given resolution.
func (r *Referee) CanApply(resolution ResolutionType) bool {
	if !r.IsActive {
		return false
	}
	switch resolution {
	case ResolutionAnnulMatch:
		return r.CanAnnulMatches
	case ResolutionModifyResults, ResolutionReplayGame:
		return r.CanModifyResults
	default:
		return r.CanResolveDisputes
	}
}
