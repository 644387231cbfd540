package services

import "errors"

var (
	// Match lifecycle.
	ErrNotMatchParticipant = errors.New("player is not a participant of this match")
	ErrWrongStage          = errors.New("operation is not allowed at the current match stage")
	ErrMatchFrozen         = errors.New("match is frozen by a referee intervention")
	ErrMatchFinished       = errors.New("match is already completed or annulled")
	ErrPlayerBusy          = errors.New("player already has an active match")
	ErrSamePlayer          = errors.New("a player cannot play against themselves")
	ErrInvalidFormat       = errors.New("unknown match format")
	ErrDraftLinkInvalid    = errors.New("draft link is not a valid URL")
	ErrInvalidFirstChoice  = errors.New("unknown first-player choice")
	ErrOwnResultEntry      = errors.New("results are entered for the opponent, not for yourself")
	ErrResultLocked        = errors.New("result for this game is already confirmed")
	ErrInvalidResult       = errors.New("result values are out of range")

	// Season gate.
	ErrNoActiveSeason = errors.New("no active season")
	ErrSeasonClosed   = errors.New("season does not accept new matches")
	ErrSeasonDates    = errors.New("season end date must be after start date")

	// Referee cases.
	ErrCaseNotAssignable   = errors.New("case can no longer be assigned")
	ErrCaseNotResolvable   = errors.New("case is not in a resolvable state")
	ErrNotCaseReferee      = errors.New("case belongs to a different referee")
	ErrPermissionDenied    = errors.New("referee lacks the capability for this resolution")
	ErrResolutionUnknown   = errors.New("unknown resolution type")
	ErrNoInterventionState = errors.New("match has no intervention state to resume from")

	// Auth.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRefereeInactive    = errors.New("referee account is deactivated")
	ErrAdminOnly          = errors.New("operation requires an admin referee")
)
