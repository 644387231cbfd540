package models

import "time"

// Rating is one player's rating record within one season.
type Rating struct {
	ID          int       `json:"id"`
	PlayerID    int       `json:"player_id"`
	SeasonID    int       `json:"season_id"`
	Rating      float64   `json:"rating"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	LastChange  float64   `json:"last_change"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Rating) WinRate() float64 {
	if r.GamesPlayed == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.GamesPlayed)
}

// ApplyResult records one completed match: exactly one of win/draw/loss.
func (r *Rating) ApplyResult(result float64, delta float64) {
	r.GamesPlayed++
	switch result {
	case 1:
		r.Wins++
	case 0.5:
		r.Draws++
	default:
		r.Losses++
	}
	r.Rating += delta
	r.LastChange = delta
}
