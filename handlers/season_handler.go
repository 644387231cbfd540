package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/ladder-system/services"
)

type SeasonHandler struct {
	seasonService services.SeasonService
	ratingService services.RatingService
}

func NewSeasonHandler(seasonService services.SeasonService, ratingService services.RatingService) *SeasonHandler {
	return &SeasonHandler{seasonService: seasonService, ratingService: ratingService}
}

func (h *SeasonHandler) GetActiveSeason(w http.ResponseWriter, r *http.Request) {
	season, err := h.seasonService.GetActive(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"season":          season,
		"days_until_end":  season.DaysUntilEnd(time.Now()),
		"blocking_reason": season.BlockingReason(),
	}, nil)
}

func (h *SeasonHandler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name                 string    `json:"name"`
		StartDate            time.Time `json:"start_date"`
		EndDate              time.Time `json:"end_date"`
		InitialRating        float64   `json:"initial_rating"`
		KFactorNew           float64   `json:"k_factor_new"`
		KFactorEstablished   float64   `json:"k_factor_established"`
		EstablishedThreshold int       `json:"established_threshold"`
		WarningThresholdDays int       `json:"warning_threshold_days"`
		EndingThresholdDays  int       `json:"ending_threshold_days"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	season, err := h.seasonService.CreateSeason(r.Context(), services.CreateSeasonParams{
		Name:                 input.Name,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		InitialRating:        input.InitialRating,
		KFactorNew:           input.KFactorNew,
		KFactorEstablished:   input.KFactorEstablished,
		EstablishedThreshold: input.EstablishedThreshold,
		WarningThresholdDays: input.WarningThresholdDays,
		EndingThresholdDays:  input.EndingThresholdDays,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"season": season}, nil)
}

func (h *SeasonHandler) ForceEndSeason(w http.ResponseWriter, r *http.Request) {
	seasonID, err := idParam(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Reason string `json:"reason"`
	}
	if err = readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Reason == "" {
		input.Reason = "season closed by administrator"
	}

	if err = h.seasonService.ForceEnd(r.Context(), seasonID, input.Reason); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "ended"}, nil)
}

func (h *SeasonHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	seasonID, err := idParam(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.ratingService.Leaderboard(r.Context(), seasonID, 25)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": entries}, nil)
}

func (h *SeasonHandler) PlayerRating(w http.ResponseWriter, r *http.Request) {
	seasonID, err := idParam(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := idParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rating, err := h.ratingService.PlayerRating(r.Context(), playerID, seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"rating": rating}, nil)
}
