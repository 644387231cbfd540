package models

import "time"

type CaseType string

const (
	CaseDraftDispute   CaseType = "draft_dispute"
	CaseStreamIssue    CaseType = "stream_issue"
	CaseTimeDispute    CaseType = "time_dispute"
	CaseResultDispute  CaseType = "result_dispute"
	CaseRuleViolation  CaseType = "rule_violation"
	CaseTechnicalIssue CaseType = "technical_issue"
	CaseOther          CaseType = "other"
)

func (t CaseType) Valid() bool {
	switch t {
	case CaseDraftDispute, CaseStreamIssue, CaseTimeDispute, CaseResultDispute,
		CaseRuleViolation, CaseTechnicalIssue, CaseOther:
		return true
	}
	return false
}

type CaseStatus string

const (
	CaseOpened     CaseStatus = "opened"
	CaseAssigned   CaseStatus = "assigned"
	CaseInProgress CaseStatus = "in_progress"
	CaseResolved   CaseStatus = "resolved"
	CaseClosed     CaseStatus = "closed"
)

// IsOpen reports whether the case still blocks its match.
func (s CaseStatus) IsOpen() bool {
	return s == CaseOpened || s == CaseAssigned || s == CaseInProgress
}

type ResolutionType string

const (
	ResolutionContinueMatch ResolutionType = "continue_match"
	ResolutionModifyResults ResolutionType = "modify_results"
	ResolutionReplayGame    ResolutionType = "replay_game"
	ResolutionAnnulMatch    ResolutionType = "annul_match"
	ResolutionWarning       ResolutionType = "warning_issued"
	ResolutionOther         ResolutionType = "other"
)

func (t ResolutionType) Valid() bool {
	switch t {
	case ResolutionContinueMatch, ResolutionModifyResults, ResolutionReplayGame,
		ResolutionAnnulMatch, ResolutionWarning, ResolutionOther:
		return true
	}
	return false
}

// RefereeCase is one dispute opened against a match. Status only moves
// forward: opened -> assigned -> in_progress -> resolved/closed.
type RefereeCase struct {
	ID      int `json:"id"`
	MatchID int `json:"match_id"`

	Type       CaseType   `json:"case_type"`
	Status     CaseStatus `json:"status"`
	ReportedBy int        `json:"reported_by"`

	ProblemDescription string     `json:"problem_description"`
	EvidenceKey        *string    `json:"evidence_key,omitempty"`
	StageWhenReported  MatchStage `json:"stage_when_reported"`

	RefereeID         *int            `json:"referee_id,omitempty"`
	ResolutionType    *ResolutionType `json:"resolution_type,omitempty"`
	ResolutionDetails *string         `json:"resolution_details,omitempty"`
	RefereeNotes      *string         `json:"referee_notes,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// CanBeAssigned reports whether a referee may still claim the case.
func (c *RefereeCase) CanBeAssigned() bool {
	return c.Status == CaseOpened
}

// CanBeResolved reports whether the case may be resolved by its referee.
func (c *RefereeCase) CanBeResolved() bool {
	return c.Status == CaseAssigned || c.Status == CaseInProgress
}
