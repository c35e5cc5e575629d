package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type scheduleResponse struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	RunAt    time.Time `json:"run_at"`
	Interval string    `json:"interval,omitempty"`
	CronExpr string    `json:"cron,omitempty"`
	Created  time.Time `json:"created"`
	Runs     int64     `json:"runs"`
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	entries := s.scheduler.List()
	out := make([]scheduleResponse, 0, len(entries))
	for _, e := range entries {
		sr := scheduleResponse{
			ID:       e.ID,
			Kind:     string(e.Kind),
			RunAt:    e.RunAt,
			CronExpr: e.CronExpr,
			Created:  e.Created,
			Runs:     e.Runs,
		}
		if e.Interval > 0 {
			sr.Interval = e.Interval.String()
		}
		out = append(out, sr)
	}
	respondOK(w, RequestIDFromContext(r.Context()), out)
}

func (s *Server) handleCancelSchedule(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if !s.scheduler.Cancel(id) {
		respondError(w, reqID, http.StatusNotFound, &APIError{
			Code:    CodeNotFound,
			Message: "no schedule with id " + id,
		})
		return
	}
	respondOK(w, reqID, map[string]string{"id": id})
}
