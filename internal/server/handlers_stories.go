package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/story-master/internal/types"
	"go.uber.org/zap"
)

// requiredStoryFields must be present in a create body; blank values are a
// separate, later check
var requiredStoryFields = []string{
	"title", "category", "introduction", "middle", "conclusion", "date_completed", "word_count",
}

// decodeStoryCreate reads a create body, reporting absent fields before
// decoding so they can be told apart from blank ones
func decodeStoryCreate(r *http.Request) (*types.StoryCreateRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}

	var missing []string
	for _, field := range requiredStoryFields {
		if v, ok := raw[field]; !ok || string(v) == "null" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ErrMissingField{Fields: missing}
	}

	// teacher_feedback is read-only and dropped here
	delete(raw, "teacher_feedback")
	body, err := json.Marshal(raw)
	if err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}

	var req types.StoryCreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ErrValidation{Field: typeErr.Field, Message: "must be a " + typeErr.Type.String()}
		}
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, fromValidator(err)
	}
	return &req, nil
}

// storyID extracts and checks the path id
func storyID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", &ErrInvalidID{ID: id}
	}
	return id, nil
}

// handleListStories returns all stories, newest first
func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	stories, err := s.store.ListStories(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stories)
}

// handleCreateStory stores a completed story
func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStoryCreate(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	story, err := s.store.CreateStory(r.Context(), req)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.logger.Info("story created",
		zap.String("id", story.ID),
		zap.String("category", story.Category),
		zap.Int("word_count", story.WordCount),
	)
	s.jsonResponse(w, http.StatusCreated, story)
}

// handleGetStory returns one story
func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	id, err := storyID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	story, err := s.store.GetStory(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if story == nil {
		s.handleError(w, &ErrStoryNotFound{ID: id})
		return
	}
	s.jsonResponse(w, http.StatusOK, story)
}

// handleDeleteStory removes one story
func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	id, err := storyID(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := s.store.DeleteStory(r.Context(), id); err != nil {
		s.handleError(w, err)
		return
	}
	s.logger.Info("story deleted", zap.String("id", id))
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleListCategories returns the catalog categories
func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.catalog.Categories)
}
