package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/story-master/internal/types"
	"go.uber.org/zap"
)

// handleGetProgress returns the learner's progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.store.GetProgress(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, progress)
}

// handleUpdateProgress applies a partial update. Only lesson_completed is
// stored; the response carries the recomputed counters.
func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var update types.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := update.Validate(); err != nil {
		s.handleError(w, fromValidator(err))
		return
	}

	progress, err := s.store.UpdateProgress(r.Context(), update)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if update.LessonCompleted != nil {
		s.logger.Info("progress updated", zap.Bool("lesson_completed", progress.LessonCompleted))
	}
	s.jsonResponse(w, http.StatusOK, progress)
}
