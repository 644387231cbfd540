package handlers

import (
	"net/http"

	"github.com/Dosada05/ladder-system/middleware"
	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/services"
)

type RefereeHandler struct {
	refereeService services.RefereeService
}

func NewRefereeHandler(refereeService services.RefereeService) *RefereeHandler {
	return &RefereeHandler{refereeService: refereeService}
}

// OpenCase is called on behalf of a player: it freezes the match and files
// the dispute. No referee token is required.
func (h *RefereeHandler) OpenCase(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		ReportedBy  int    `json:"reported_by"`
		CaseType    string `json:"case_type"`
		Description string `json:"description"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	c, err := h.refereeService.OpenCase(r.Context(), services.OpenCaseParams{
		MatchID:     matchID,
		ReportedBy:  input.ReportedBy,
		Type:        models.CaseType(input.CaseType),
		Description: input.Description,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"case": c}, nil)
}

func (h *RefereeHandler) ListOpenCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.refereeService.ListOpenCases(r.Context(), 50)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"cases": cases}, nil)
}

func (h *RefereeHandler) ListMyCases(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	cases, err := h.refereeService.ListRefereeCases(r.Context(), claims.RefereeID, 50)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"cases": cases}, nil)
}

func (h *RefereeHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := idParam(r, "caseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	c, err := h.refereeService.GetCase(r.Context(), caseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"case": c}, nil)
}

func (h *RefereeHandler) AssignCase(w http.ResponseWriter, r *http.Request) {
	caseID, claims, ok := h.caseAndClaims(w, r)
	if !ok {
		return
	}

	c, err := h.refereeService.AssignCase(r.Context(), caseID, claims.RefereeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"case": c}, nil)
}

func (h *RefereeHandler) StartResolution(w http.ResponseWriter, r *http.Request) {
	caseID, claims, ok := h.caseAndClaims(w, r)
	if !ok {
		return
	}

	if err := h.refereeService.StartResolution(r.Context(), caseID, claims.RefereeID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "in_progress"}, nil)
}

func (h *RefereeHandler) ResolveCase(w http.ResponseWriter, r *http.Request) {
	caseID, claims, ok := h.caseAndClaims(w, r)
	if !ok {
		return
	}

	var input struct {
		Resolution string `json:"resolution"`
		Details    string `json:"details"`
		Notes      string `json:"notes"`
		GameNumber int    `json:"game_number"`
		Result     *struct {
			GameNumber       int      `json:"game_number"`
			Player1Time      *float64 `json:"player1_time"`
			Player1Restarts  int      `json:"player1_restarts"`
			Player1Penalty   float64  `json:"player1_penalty"`
			Player1FinalTime *float64 `json:"player1_final_time"`
			Player2Time      *float64 `json:"player2_time"`
			Player2Restarts  int      `json:"player2_restarts"`
			Player2Penalty   float64  `json:"player2_penalty"`
			Player2FinalTime *float64 `json:"player2_final_time"`
		} `json:"result"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	params := services.ResolveCaseParams{
		CaseID:     caseID,
		RefereeID:  claims.RefereeID,
		Resolution: models.ResolutionType(input.Resolution),
		Details:    input.Details,
		Notes:      input.Notes,
		GameNumber: input.GameNumber,
	}
	if input.Result != nil {
		params.ModifiedResult = &models.GameResult{
			GameNumber:       input.Result.GameNumber,
			Player1Time:      input.Result.Player1Time,
			Player1Restarts:  input.Result.Player1Restarts,
			Player1Penalty:   input.Result.Player1Penalty,
			Player1FinalTime: input.Result.Player1FinalTime,
			Player2Time:      input.Result.Player2Time,
			Player2Restarts:  input.Result.Player2Restarts,
			Player2Penalty:   input.Result.Player2Penalty,
			Player2FinalTime: input.Result.Player2FinalTime,
		}
	}

	c, err := h.refereeService.ResolveCase(r.Context(), params)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"case": c}, nil)
}

func (h *RefereeHandler) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	caseID, err := idParam(r, "caseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err = r.ParseMultipartForm(10 << 20); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	file, header, err := r.FormFile("evidence")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	location, err := h.refereeService.AttachEvidence(r.Context(), caseID, header.Filename, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"evidence_url": location}, nil)
}

func (h *RefereeHandler) caseAndClaims(w http.ResponseWriter, r *http.Request) (int, *services.RefereeClaims, bool) {
	caseID, err := idParam(r, "caseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, nil, false
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return 0, nil, false
	}
	return caseID, claims, true
}
