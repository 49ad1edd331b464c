package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/sqlrevise/internal/domain"
)

// Intervals is the fixed set of reschedule intervals, in days. The UI must
// offer exactly these; anything else is rejected before a write happens.
var Intervals = []int{2, 7, 21}

// ErrInvalidInterval reports a reschedule interval outside the fixed set.
var ErrInvalidInterval = errors.New("invalid reschedule interval")

// ValidInterval reports whether days is one of the fixed intervals.
func ValidInterval(days int) bool {
	for _, d := range Intervals {
		if d == days {
			return true
		}
	}
	return false
}

// Scheduler selects the next due exercise and applies interval updates to
// the review-state store.
type Scheduler struct {
	store *Store
}

// NewScheduler returns a scheduler over the given store.
func NewScheduler(store *Store) *Scheduler {
	return &Scheduler{store: store}
}

// Date truncates t to a civil date in UTC, the granularity the store keeps.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextDue returns the most-overdue exercise matching the filter, with ties
// broken by name ascending. It returns nil, nil when nothing is due today;
// that is a normal outcome, not an error.
func (s *Scheduler) NextDue(ctx context.Context, exercises []domain.Exercise, f domain.Filter, today time.Time) (*domain.Exercise, error) {
	today = Date(today)

	var (
		best     *domain.Exercise
		bestDate time.Time
	)
	for i := range exercises {
		e := exercises[i]
		if !f.Match(e) {
			continue
		}
		due, err := s.store.Get(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		if due.After(today) {
			continue
		}
		if best == nil || due.Before(bestDate) || (due.Equal(bestDate) && e.Name < best.Name) {
			best = &exercises[i]
			bestDate = due
		}
	}
	return best, nil
}

// Reschedule sets the exercise's next-eligible date to today plus the given
// interval. The stored date gates future eligibility; it is not a record of
// when the review happened.
func (s *Scheduler) Reschedule(ctx context.Context, name string, today time.Time, days int) error {
	if !ValidInterval(days) {
		return fmt.Errorf("%w: %d days (allowed: %v)", ErrInvalidInterval, days, Intervals)
	}
	return s.store.Set(ctx, name, Date(today).AddDate(0, 0, days))
}

// Reset makes one exercise immediately due again regardless of its schedule.
func (s *Scheduler) Reset(ctx context.Context, name string) error {
	return s.store.Set(ctx, name, Epoch)
}

// ResetAll makes every given exercise immediately due; nil means all.
func (s *Scheduler) ResetAll(ctx context.Context, names []string) error {
	return s.store.ResetAll(ctx, names)
}

// Status pairs an exercise with its current next-eligible date.
type Status struct {
	Exercise     domain.Exercise
	NextEligible time.Time
}

// Statuses returns the filtered exercises with their next-eligible dates,
// ordered most overdue first, ties broken by name.
func (s *Scheduler) Statuses(ctx context.Context, exercises []domain.Exercise, f domain.Filter) ([]Status, error) {
	var out []Status
	for _, e := range exercises {
		if !f.Match(e) {
			continue
		}
		due, err := s.store.Get(ctx, e.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, Status{Exercise: e, NextEligible: due})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextEligible.Equal(out[j].NextEligible) {
			return out[i].NextEligible.Before(out[j].NextEligible)
		}
		return out[i].Exercise.Name < out[j].Exercise.Name
	})
	return out, nil
}
