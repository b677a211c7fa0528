package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonathan/story-master/internal/db"
	"github.com/jonathan/story-master/internal/server"
	"github.com/jonathan/story-master/internal/server/ratelimit"
	"github.com/jonathan/story-master/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAPI starts the real REST handler over an in-memory store.
func newAPI(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	store, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(store.Close)

	srv, err := server.New(server.Config{Store: store, RateLimit: &ratelimit.Config{}})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL + "/api")
	require.NoError(t, err)
	return c
}

func storyRequest() *types.StoryCreateRequest {
	return &types.StoryCreateRequest{
		Title:         "The Map",
		Category:      "Adventure",
		Introduction:  "Emma found a map.",
		Middle:        "She followed it through the forest.",
		Conclusion:    "She found treasure and shared it.",
		DateCompleted: time.Now().Format(types.DateLayout),
		WordCount:     16,
	}
}

func TestClient_RoundTrip(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()

	p, err := c.GetProgress(ctx)
	require.NoError(t, err)
	assert.False(t, p.LessonCompleted)

	p, err = c.UpdateProgress(ctx, types.ProgressUpdate{LessonCompleted: types.Bool(true)})
	require.NoError(t, err)
	assert.True(t, p.LessonCompleted)

	created, err := c.CreateStory(ctx, storyRequest())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := c.GetStory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 16, got.WordCount)

	list, err := c.ListStories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	p, err = c.GetProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StoriesCount)
	assert.Equal(t, 16, p.TotalWords)
	assert.Equal(t, 1, p.CurrentStreak)

	require.NoError(t, c.DeleteStory(ctx, created.ID))
	err = c.DeleteStory(ctx, created.ID)
	assert.True(t, IsNotFound(err))

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
}

func TestClient_ValidationError(t *testing.T) {
	c := newAPI(t)
	req := storyRequest()
	req.Title = "  "

	_, err := c.CreateStory(context.Background(), req)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, http.StatusBadRequest, verr.StatusCode)
	assert.Contains(t, verr.Message, "title")
}

func TestClient_MissingFieldIs422(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","title"],"msg":"field required"}]}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.CreateStory(context.Background(), storyRequest())
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, http.StatusUnprocessableEntity, verr.StatusCode)
	assert.Contains(t, verr.Message, "field required")
}

func TestClient_NormalizesLegacyStories(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "The Magic Garden", "category": "Fantasy",
			 "content": "Once upon a time there was a garden.", "dateCreated": "2024-12-28", "wordCount": 8},
			{"id": "abc", "title": "Structured", "category": "Adventure",
			 "introduction": "One two.", "middle": "Three.", "conclusion": "Four five six.",
			 "date_completed": "2024-12-20", "word_count": 6}
		]`))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	stories, err := c.ListStories(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 2)

	assert.Equal(t, "1", stories[0].ID)
	assert.Equal(t, "Once upon a time there was a garden.", stories[0].Introduction)
	assert.Equal(t, "2024-12-28", stories[0].DateCompleted)
	assert.Equal(t, 8, stories[0].WordCount)
	assert.Equal(t, "Four five six.", stories[1].Conclusion)
}

func TestClient_TransportErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		}))
		defer ts.Close()
		c, err := New(ts.URL)
		require.NoError(t, err)

		_, err = c.GetProgress(context.Background())
		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
		assert.Equal(t, "Internal server error", te.Message)
	})

	t.Run("undecodable body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer ts.Close()
		c, err := New(ts.URL)
		require.NoError(t, err)

		_, err = c.GetProgress(context.Background())
		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "invalid response", te.Message)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer ts.Close()
		defer close(release)

		c, err := New(ts.URL, WithTimeout(50*time.Millisecond))
		require.NoError(t, err)

		_, err = c.GetProgress(context.Background())
		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "request failed", te.Message)
	})

	t.Run("connection refused", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		c, err := New(url)
		require.NoError(t, err)
		_, err = c.ListStories(context.Background())
		var te *TransportError
		assert.True(t, errors.As(err, &te))
	})
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
	_, err = New("")
	assert.Error(t, err)
}
