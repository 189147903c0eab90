package web

import (
	"encoding/json"
	"net/http"

	"github.com/abhisek/coursekit/internal/progress"
)

// weekProgressResponse is the body of the week progress endpoint.
type weekProgressResponse struct {
	Course     string `json:"course"`
	Week       int    `json:"week"`
	TopicsDone int    `json:"topics_done"`
	Total      int    `json:"total"`
	Percent    int    `json:"percent"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger(r.Context()))
}

func (s *Server) handleWeekProgress(w http.ResponseWriter, r *http.Request) {
	c, wk, ok := s.resolveWeek(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	ledger := s.ledger(ctx)

	resp := weekProgressResponse{Course: c.ID, Week: wk.ID, Total: wk.TopicCount()}
	for _, d := range wk.Days {
		for _, t := range d.Topics {
			if _, done := ledger[progress.TopicKey(c.ID, wk.ID, d.ID, t.ID)]; done {
				resp.TopicsDone++
			}
		}
	}
	resp.Percent = s.weekPercent(ctx, c.ID, wk.ID, resp.Total)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
