package server

import (
	"fmt"
	"net/http"
	"strconv"
)

// transitionResponse reports the pool state after a lifecycle call.
type transitionResponse struct {
	Changed bool   `json:"changed"`
	Workers int    `json:"workers"`
	State   string `json:"state"`
}

func (s *Server) handlePoolStats(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), s.pool.Stats())
}

// POST /pool/start?count=N
func (s *Server) handlePoolStart(w http.ResponseWriter, r *http.Request) {
	n, ok := s.countParam(w, r)
	if !ok {
		return
	}
	s.transition(w, r, "start", s.pool.Start(n))
}

// POST /pool/stop[?wait=false]
func (s *Server) handlePoolStop(w http.ResponseWriter, r *http.Request) {
	if waitParam(r) {
		s.transition(w, r, "stop", s.pool.Stop())
		return
	}
	s.transition(w, r, "stop", s.pool.StopNoWait())
}

// POST /pool/pause[?wait=false]
func (s *Server) handlePoolPause(w http.ResponseWriter, r *http.Request) {
	if waitParam(r) {
		s.transition(w, r, "pause", s.pool.Pause())
		return
	}
	s.transition(w, r, "pause", s.pool.PauseNoWait())
}

func (s *Server) handlePoolResume(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "resume", s.pool.Resume())
}

// POST /pool/workers?count=N[&wait=false]
func (s *Server) handlePoolWorkers(w http.ResponseWriter, r *http.Request) {
	n, ok := s.countParam(w, r)
	if !ok {
		return
	}
	if waitParam(r) {
		s.transition(w, r, "resize", s.pool.SetWorkerCount(n))
		return
	}
	s.transition(w, r, "resize", s.pool.SetWorkerCountNoWait(n))
}

// transition answers 200 when the pool accepted the call and 409 when the
// call was illegal in the current state.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, op string, changed bool) {
	reqID := RequestIDFromContext(r.Context())
	if !changed {
		respondError(w, reqID, http.StatusConflict, &APIError{
			Code:    CodeConflict,
			Message: fmt.Sprintf("%s is not allowed while the pool is %s", op, s.state()),
		})
		return
	}
	respondOK(w, reqID, transitionResponse{
		Changed: true,
		Workers: s.pool.WorkerCount(),
		State:   s.state(),
	})
}

func (s *Server) state() string {
	switch {
	case s.pool.IsStopped():
		return "stopped"
	case s.pool.IsPaused():
		return "paused"
	}
	return "running"
}

func (s *Server) countParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("count")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusBadRequest, &APIError{
			Code:    CodeInvalidArgument,
			Message: fmt.Sprintf("count must be a non-negative integer, got %q", raw),
		})
		return 0, false
	}
	return n, true
}

// waitParam defaults to true; only an explicit false selects the
// non-blocking variant.
func waitParam(r *http.Request) bool {
	wait, err := strconv.ParseBool(r.URL.Query().Get("wait"))
	return err != nil || wait
}
