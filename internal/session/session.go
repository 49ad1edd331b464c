// Package session orchestrates one learner interaction: pick the next due
// exercise, grade a submission against the canonical answer, and apply the
// chosen reschedule. The controller holds its collaborators explicitly;
// there is no process-wide session state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/sqlrevise/internal/catalog"
	"github.com/example/sqlrevise/internal/compare"
	"github.com/example/sqlrevise/internal/domain"
	"github.com/example/sqlrevise/internal/engine"
	"github.com/example/sqlrevise/internal/review"
)

// ErrExerciseUnavailable reports that the canonical answer itself failed to
// execute. That is a fixture-quality fault for the maintainer, distinct
// from anything the learner did; callers show a generic message.
var ErrExerciseUnavailable = errors.New("exercise unavailable")

// Controller exposes the per-interaction contract to the UI layer.
type Controller struct {
	catalog *catalog.Catalog
	sched   *review.Scheduler
	exec    engine.Executor
	log     *slog.Logger
	now     func() time.Time
}

// New creates a controller. A nil logger falls back to slog's default.
func New(cat *catalog.Catalog, sched *review.Scheduler, exec engine.Executor, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		catalog: cat,
		sched:   sched,
		exec:    exec,
		log:     log,
		now:     time.Now,
	}
}

// BeginSession returns the most-overdue exercise matching the filter, or
// nil when nothing is due today. The nil case is a normal signal; the
// caller should offer a reset action.
func (c *Controller) BeginSession(ctx context.Context, f domain.Filter) (*domain.Exercise, error) {
	return c.sched.NextDue(ctx, c.catalog.Exercises(), f, c.now())
}

// Submit grades the learner's SQL against the exercise's canonical answer.
// A learner execution failure becomes a SyntaxError verdict; a canonical
// execution failure becomes ErrExerciseUnavailable. Submit never touches
// the review state.
func (c *Controller) Submit(ctx context.Context, ex domain.Exercise, sqlText string) (compare.Verdict, error) {
	canonical, err := c.exec.Execute(ctx, ex.Answer)
	if err != nil {
		var execErr *engine.ExecError
		if errors.As(err, &execErr) {
			c.log.Error("canonical answer failed to execute",
				"exercise", ex.Name,
				"error", execErr.Msg,
			)
			return compare.Verdict{}, fmt.Errorf("%w: %s", ErrExerciseUnavailable, ex.Name)
		}
		return compare.Verdict{}, err
	}

	submitted, err := c.exec.Execute(ctx, sqlText)
	if err != nil {
		var execErr *engine.ExecError
		if errors.As(err, &execErr) {
			c.log.Info("submission failed to execute",
				"exercise", ex.Name,
				"error", execErr.Msg,
			)
			return compare.Compare(nil, canonical), nil
		}
		return compare.Verdict{}, err
	}

	return compare.Compare(submitted, canonical), nil
}

// Schedule pushes the exercise's next-eligible date out by the given
// interval. The interval must be one of review.Intervals.
func (c *Controller) Schedule(ctx context.Context, name string, days int) error {
	return c.sched.Reschedule(ctx, name, c.now(), days)
}

// Reset makes one exercise immediately due again.
func (c *Controller) Reset(ctx context.Context, name string) error {
	return c.sched.Reset(ctx, name)
}

// ResetAll makes every exercise in the filtered view immediately due. A
// zero filter resets the whole catalog.
func (c *Controller) ResetAll(ctx context.Context, f domain.Filter) error {
	if f == (domain.Filter{}) {
		return c.sched.ResetAll(ctx, nil)
	}
	names := make([]string, 0)
	for _, e := range c.catalog.Exercises() {
		if f.Match(e) {
			names = append(names, e.Name)
		}
	}
	return c.sched.ResetAll(ctx, names)
}

// List returns the filtered exercises with their next-eligible dates, most
// overdue first.
func (c *Controller) List(ctx context.Context, f domain.Filter) ([]review.Status, error) {
	return c.sched.Statuses(ctx, c.catalog.Exercises(), f)
}

// Find looks an exercise up by name.
func (c *Controller) Find(name string) (domain.Exercise, bool) {
	return c.catalog.Find(name)
}

// FilterOptions returns the distinct filter values present in the catalog.
func (c *Controller) FilterOptions() (themes, authors []string, difficulties []domain.Difficulty) {
	return c.catalog.Themes(), c.catalog.Authors(), c.catalog.Difficulties()
}
