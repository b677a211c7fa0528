package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/story-master/internal/types"
	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed-width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists stories in a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) a SQLite database. An empty path or
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	o := buildOptions(opts)
	return &SQLiteStore{db: conn, now: o.now}, nil
}

func (s *SQLiteStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) timestamp() string {
	return s.now().UTC().Format(sqliteTimeLayout)
}

func (s *SQLiteStore) GetProgress(ctx context.Context) (*types.Progress, error) {
	ts := s.timestamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (id, lesson_completed, created_at, updated_at) VALUES (?, 0, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		progressRowID, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure progress: %w", err)
	}

	var lessonCompleted bool
	var createdAt, updatedAt string
	err = s.db.QueryRowContext(ctx,
		`SELECT lesson_completed, created_at, updated_at FROM user_progress WHERE id = ?`,
		progressRowID,
	).Scan(&lessonCompleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	var count, words int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(word_count), 0) FROM stories`,
	).Scan(&count, &words)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stories: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT date_completed FROM stories`)
	if err != nil {
		return nil, fmt.Errorf("failed to list story dates: %w", err)
	}
	defer rows.Close()
	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan story date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list story dates: %w", err)
	}

	return progressFromRows(lessonCompleted, parseSQLiteTime(createdAt), parseSQLiteTime(updatedAt),
		count, words, dates, s.now()), nil
}

func (s *SQLiteStore) UpdateProgress(ctx context.Context, update types.ProgressUpdate) (*types.Progress, error) {
	if update.LessonCompleted != nil {
		ts := s.timestamp()
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO user_progress (id, lesson_completed, created_at, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET lesson_completed = excluded.lesson_completed, updated_at = excluded.updated_at`,
			progressRowID, *update.LessonCompleted, ts, ts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update progress: %w", err)
		}
	}
	return s.GetProgress(ctx)
}

func (s *SQLiteStore) CreateStory(ctx context.Context, req *types.StoryCreateRequest) (*types.Story, error) {
	now := s.now().UTC()
	ts := now.Format(sqliteTimeLayout)
	story := types.Story{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Category:      req.Category,
		Introduction:  req.Introduction,
		Middle:        req.Middle,
		Conclusion:    req.Conclusion,
		WordCount:     req.WordCount,
		DateCompleted: req.DateCompleted,
		StudentName:   req.StudentName,
		CreatedAt:     parseSQLiteTime(ts),
		UpdatedAt:     parseSQLiteTime(ts),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stories (id, title, category, introduction, middle, conclusion, word_count, date_completed, student_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.ID, story.Title, story.Category, story.Introduction, story.Middle, story.Conclusion,
		story.WordCount, story.DateCompleted, story.StudentName, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}
	return &story, nil
}

func (s *SQLiteStore) ListStories(ctx context.Context) ([]types.Story, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteStoryColumns+` FROM stories ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	stories := []types.Story{}
	for rows.Next() {
		story, err := scanSQLiteStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, *story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (s *SQLiteStore) GetStory(ctx context.Context, id string) (*types.Story, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteStoryColumns+` FROM stories WHERE id = ?`, id)
	story, err := scanSQLiteStory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return story, nil
}

func (s *SQLiteStore) DeleteStory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if n == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

const sqliteStoryColumns = `id, title, category, introduction, middle, conclusion,
	word_count, date_completed, student_name, teacher_feedback, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteStory(row rowScanner) (*types.Story, error) {
	var story types.Story
	var createdAt, updatedAt string
	err := row.Scan(&story.ID, &story.Title, &story.Category, &story.Introduction, &story.Middle,
		&story.Conclusion, &story.WordCount, &story.DateCompleted, &story.StudentName,
		&story.TeacherFeedback, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan story: %w", err)
	}
	story.CreatedAt = parseSQLiteTime(createdAt)
	story.UpdatedAt = parseSQLiteTime(updatedAt)
	return &story, nil
}

func parseSQLiteTime(s string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
