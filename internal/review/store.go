package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// Epoch is the sentinel "never reviewed / always due" date. It sorts before
// any real review date, so a never-reviewed exercise is maximally overdue.
var Epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

const dateLayout = "2006-01-02"

// ErrNotFound reports a write targeting an exercise name the store does not
// know about.
var ErrNotFound = errors.New("exercise not found")

// Store is the durable review-state mapping. All access goes through
// parameterized statements, and writes serialize behind a single mutex so a
// concurrent Set or ResetAll on the same key is never silently lost.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates a store connection and ensures the schema is up to date.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open review database: %w", err)
	}
	// One connection: keeps in-memory DSNs coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to review database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply review schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Seed inserts an initial review date for an exercise, leaving any existing
// record untouched. Called once per catalog exercise at startup; it is what
// makes later Set calls referentially checkable.
func (s *Store) Seed(ctx context.Context, name string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_state (exercise_name, last_reviewed)
		VALUES (?, ?)
		ON CONFLICT(exercise_name) DO NOTHING
	`, name, date.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("failed to seed review state for %s: %w", name, err)
	}
	return nil
}

// Get returns the exercise's next-eligible date, or the epoch sentinel when
// no record exists yet.
func (s *Store) Get(ctx context.Context, name string) (time.Time, error) {
	var raw string
	row := s.db.QueryRowContext(ctx, `
		SELECT last_reviewed FROM review_state WHERE exercise_name = ?
	`, name)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Epoch, nil
		}
		return time.Time{}, fmt.Errorf("failed to read review state for %s: %w", name, err)
	}

	d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt review date %q for %s: %w", raw, name, err)
	}
	return d, nil
}

// Set updates the exercise's next-eligible date. It fails with ErrNotFound
// when the name was never seeded from the catalog.
func (s *Store) Set(ctx context.Context, name string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE review_state SET last_reviewed = ? WHERE exercise_name = ?
	`, date.Format(dateLayout), name)
	if err != nil {
		return fmt.Errorf("failed to update review state for %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update review state for %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// ResetAll sets every given exercise back to the epoch sentinel in one
// transaction. A nil slice resets every record in the store; an empty
// non-nil slice resets nothing.
func (s *Store) ResetAll(ctx context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	sentinel := Epoch.Format(dateLayout)
	if names == nil {
		if _, err := tx.ExecContext(ctx, `UPDATE review_state SET last_reviewed = ?`, sentinel); err != nil {
			return fmt.Errorf("failed to reset review state: %w", err)
		}
	} else {
		for _, name := range names {
			if _, err := tx.ExecContext(ctx, `
				UPDATE review_state SET last_reviewed = ? WHERE exercise_name = ?
			`, sentinel, name); err != nil {
				return fmt.Errorf("failed to reset review state for %s: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
