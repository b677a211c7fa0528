package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/story-master/internal/types"
)

// PostgresStore wraps a PostgreSQL connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	o := buildOptions(opts)
	return &PostgresStore{pool: pool, now: o.now}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables and indexes
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// GetProgress retrieves progress, creating the default row on first use
func (s *PostgresStore) GetProgress(ctx context.Context) (*types.Progress, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_progress (id, lesson_completed) VALUES ($1, FALSE)
		 ON CONFLICT (id) DO NOTHING`,
		progressRowID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure progress: %w", err)
	}

	var lessonCompleted bool
	var createdAt, updatedAt time.Time
	err = s.pool.QueryRow(ctx,
		`SELECT lesson_completed, created_at, updated_at FROM user_progress WHERE id = $1`,
		progressRowID,
	).Scan(&lessonCompleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	var count, words int
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(word_count), 0) FROM stories`,
	).Scan(&count, &words)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stories: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT DISTINCT date_completed FROM stories`)
	if err != nil {
		return nil, fmt.Errorf("failed to list story dates: %w", err)
	}
	dates, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan story dates: %w", err)
	}

	return progressFromRows(lessonCompleted, createdAt, updatedAt, count, words, dates, s.now()), nil
}

// UpdateProgress persists lesson completion; derived counters are ignored
func (s *PostgresStore) UpdateProgress(ctx context.Context, update types.ProgressUpdate) (*types.Progress, error) {
	if update.LessonCompleted != nil {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO user_progress (id, lesson_completed) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET lesson_completed = $2, updated_at = NOW()`,
			progressRowID, *update.LessonCompleted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update progress: %w", err)
		}
	}
	return s.GetProgress(ctx)
}

// CreateStory inserts a story and returns the stored record
func (s *PostgresStore) CreateStory(ctx context.Context, req *types.StoryCreateRequest) (*types.Story, error) {
	id := uuid.New()
	var story types.Story
	err := s.pool.QueryRow(ctx,
		`INSERT INTO stories (id, title, category, introduction, middle, conclusion, word_count, date_completed, student_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+storyColumns,
		id, req.Title, req.Category, req.Introduction, req.Middle, req.Conclusion,
		req.WordCount, req.DateCompleted, req.StudentName,
	).Scan(storyScanTargets(&story)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}
	return &story, nil
}

// ListStories retrieves all stories, newest first
func (s *PostgresStore) ListStories(ctx context.Context) ([]types.Story, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+storyColumns+` FROM stories ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	stories := []types.Story{}
	for rows.Next() {
		var story types.Story
		if err := rows.Scan(storyScanTargets(&story)...); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

// GetStory retrieves a story by ID
func (s *PostgresStore) GetStory(ctx context.Context, id string) (*types.Story, error) {
	storyID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}

	var story types.Story
	err = s.pool.QueryRow(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE id = $1`,
		storyID,
	).Scan(storyScanTargets(&story)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return &story, nil
}

// DeleteStory deletes a story
func (s *PostgresStore) DeleteStory(ctx context.Context, id string) error {
	storyID, err := uuid.Parse(id)
	if err != nil {
		return &NotFoundError{ID: id}
	}

	result, err := s.pool.Exec(ctx, `DELETE FROM stories WHERE id = $1`, storyID)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

const storyColumns = `id::text, title, category, introduction, middle, conclusion,
	word_count, date_completed, student_name, teacher_feedback, created_at, updated_at`

func storyScanTargets(s *types.Story) []any {
	return []any{
		&s.ID, &s.Title, &s.Category, &s.Introduction, &s.Middle, &s.Conclusion,
		&s.WordCount, &s.DateCompleted, &s.StudentName, &s.TeacherFeedback, &s.CreatedAt, &s.UpdatedAt,
	}
}
