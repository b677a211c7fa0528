// Package db provides story and progress persistence on PostgreSQL or SQLite.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/story-master/internal/types"
)

// Store is the persistence contract behind the REST API.
type Store interface {
	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// GetProgress returns the progress, creating the default row if absent.
	// Derived counters are recomputed from stored stories on every read.
	GetProgress(ctx context.Context) (*types.Progress, error)

	// UpdateProgress applies a partial update and returns the recomputed progress.
	UpdateProgress(ctx context.Context, update types.ProgressUpdate) (*types.Progress, error)

	// CreateStory stores a story and returns it with its assigned id.
	CreateStory(ctx context.Context, req *types.StoryCreateRequest) (*types.Story, error)

	// ListStories returns all stories, newest first.
	ListStories(ctx context.Context) ([]types.Story, error)

	// GetStory returns a story, or nil if it does not exist.
	GetStory(ctx context.Context, id string) (*types.Story, error)

	// DeleteStory removes a story. Returns *NotFoundError if it does not exist.
	DeleteStory(ctx context.Context, id string) error

	Close()
}

// NotFoundError indicates a story id has no row.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("story not found: %s", e.ID)
}

// Option customizes a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for timestamps and streaks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open connects to the backend named by the URL scheme: postgres:// or
// postgresql:// for PostgreSQL, sqlite://path, file: or :memory: for SQLite.
func Open(ctx context.Context, databaseURL string, opts ...Option) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return Connect(ctx, databaseURL, opts...)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite://"), opts...)
	case strings.HasPrefix(databaseURL, "file:"), databaseURL == ":memory:":
		return OpenSQLite(ctx, databaseURL, opts...)
	default:
		return nil, fmt.Errorf("unsupported database URL: %q", databaseURL)
	}
}

// progressFromRows assembles the derived progress view shared by both backends.
func progressFromRows(lessonCompleted bool, createdAt, updatedAt time.Time, count, words int, dates []string, now time.Time) *types.Progress {
	return &types.Progress{
		LessonCompleted: lessonCompleted,
		StoriesCount:    count,
		TotalWords:      words,
		CurrentStreak:   types.CurrentStreak(dates, now),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}
