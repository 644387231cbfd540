package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/services"
)

var errMissingRestarts = errors.New("restarts query parameter is required and must be non-negative")

func guildParam(r *http.Request) (int64, error) {
	guildID, err := strconv.ParseInt(chi.URLParam(r, "guildID"), 10, 64)
	if err != nil || guildID < 1 {
		return 0, fmt.Errorf("invalid guildID parameter")
	}
	return guildID, nil
}

type PenaltyHandler struct {
	penaltyService services.PenaltyService
}

func NewPenaltyHandler(penaltyService services.PenaltyService) *PenaltyHandler {
	return &PenaltyHandler{penaltyService: penaltyService}
}

func (h *PenaltyHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	guildID, err := guildParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	settings, err := h.penaltyService.SettingsFor(r.Context(), guildID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil)
}

func (h *PenaltyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	guildID, err := guildParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		FreeRestarts       int                 `json:"free_restarts"`
		Tiers              models.PenaltyTiers `json:"tiers"`
		FlatPenaltySeconds float64             `json:"flat_penalty_seconds"`
		Description        *string             `json:"description"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	settings := &models.PenaltySettings{
		GuildID:            guildID,
		FreeRestarts:       input.FreeRestarts,
		Tiers:              input.Tiers,
		FlatPenaltySeconds: input.FlatPenaltySeconds,
		Description:        input.Description,
	}
	if err = h.penaltyService.UpdateSettings(r.Context(), settings); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil)
}

// Preview shows what a restart count would cost under the guild's settings.
func (h *PenaltyHandler) Preview(w http.ResponseWriter, r *http.Request) {
	guildID, err := guildParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	restarts, err := strconv.Atoi(r.URL.Query().Get("restarts"))
	if err != nil || restarts < 0 {
		badRequestResponse(w, r, errMissingRestarts)
		return
	}

	settings, err := h.penaltyService.SettingsFor(r.Context(), guildID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"restarts":      restarts,
		"total_penalty": h.penaltyService.TotalPenalty(settings, restarts),
	}, nil)
}
