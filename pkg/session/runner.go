package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/entrhq/serpwalk/pkg/engine"
	"github.com/entrhq/serpwalk/pkg/outcome"
	"github.com/entrhq/serpwalk/pkg/profile"
	"github.com/entrhq/serpwalk/pkg/task"
)

// Range is an inclusive duration range that values are drawn from uniformly.
type Range struct {
	Min time.Duration `yaml:"min" json:"min"`
	Max time.Duration `yaml:"max" json:"max"`
}

// Validate checks that the range is non-negative and ordered.
func (r Range) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("min cannot be negative")
	}
	if r.Max < r.Min {
		return fmt.Errorf("max (%s) is less than min (%s)", r.Max, r.Min)
	}
	return nil
}

func (r Range) draw(rng *rand.Rand) time.Duration {
	span := int64(r.Max - r.Min)
	if span <= 0 {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int63n(span+1))
}

// DrawSeconds draws a whole number of seconds uniformly from the range.
func (r Range) DrawSeconds(rng *rand.Rand) int {
	lo := int(r.Min / time.Second)
	hi := int(r.Max / time.Second)
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// Default ranges.
var (
	DefaultPacing      = Range{Min: 10 * time.Second, Max: 30 * time.Second}
	DefaultInteraction = Range{Min: 30 * time.Second, Max: 90 * time.Second}
)

// Persister writes a finished session and returns where it went.
type Persister interface {
	Write(state *State) (string, error)
}

// Classifier decides whether a report text shows the target was reached.
type Classifier func(resultText, targetSite string) bool

// Runner processes objectives strictly in order against one engine.
// It holds at most one engine handle at a time.
type Runner struct {
	engine      engine.Engine
	selector    *profile.Selector
	composer    *task.Composer
	classify    Classifier
	persister   Persister
	console     *Console
	rng         *rand.Rand
	pacing      Range
	interaction Range
	runID       string
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error

	current engine.Handle
}

// Option configures a Runner.
type Option func(*Runner)

// WithSelector sets the profile selector.
func WithSelector(s *profile.Selector) Option {
	return func(r *Runner) { r.selector = s }
}

// WithComposer sets the task composer.
func WithComposer(c *task.Composer) Option {
	return func(r *Runner) { r.composer = c }
}

// WithClassifier replaces the outcome classifier.
func WithClassifier(c Classifier) Option {
	return func(r *Runner) { r.classify = c }
}

// WithPersister sets where the session report is written.
func WithPersister(p Persister) Option {
	return func(r *Runner) { r.persister = p }
}

// WithConsole sets the progress output.
func WithConsole(c *Console) Option {
	return func(r *Runner) { r.console = c }
}

// WithRand sets the random source used for durations.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// WithPacing sets the delay range between objectives.
func WithPacing(rg Range) Option {
	return func(r *Runner) { r.pacing = rg }
}

// WithInteraction sets the range the on-site interaction time is drawn from.
func WithInteraction(rg Range) Option {
	return func(r *Runner) { r.interaction = rg }
}

// WithRunID tags the session report with a run identifier.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithSleeper replaces the pacing sleep.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// NewRunner creates a runner driving eng.
func NewRunner(eng engine.Engine, opts ...Option) (*Runner, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}

	r := &Runner{
		engine:      eng,
		classify:    outcome.Classify,
		pacing:      DefaultPacing,
		interaction: DefaultInteraction,
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if r.selector == nil {
		r.selector = profile.NewSelector(profile.DefaultAgents(), r.rng)
	}
	if r.composer == nil {
		r.composer = task.NewComposer("")
	}
	if r.console == nil {
		r.console = NewConsole(io.Discard, LogLevelQuiet)
	}
	if r.persister == nil {
		return nil, fmt.Errorf("persister is required")
	}
	if err := r.pacing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pacing range: %w", err)
	}
	if err := r.interaction.Validate(); err != nil {
		return nil, fmt.Errorf("invalid interaction range: %w", err)
	}

	return r, nil
}

// Run processes every objective in order, then closes the engine handle,
// persists the session report and returns the final state.
//
// Engine failures are recorded per objective and never stop the session.
// Cancelling ctx stops the session at the next checkpoint between objectives;
// the returned error then wraps ErrInterrupted. A report write failure is
// returned as *PersistenceError together with the complete state.
func (r *Runner) Run(ctx context.Context, objectives []string, targetSite string) (*State, error) {
	state := newState(r.runID, targetSite, r.now())
	defer r.release()

	r.console.SessionStart(targetSite, len(objectives))

	var interrupted error
	for i, objective := range objectives {
		r.console.Objective(i+1, len(objectives), objective)
		rec := r.runObjective(ctx, objective, targetSite)
		state.record(rec)

		if err := ctx.Err(); err != nil {
			interrupted = err
			break
		}
		if i == len(objectives)-1 {
			break
		}

		wait := r.pacing.draw(r.rng)
		r.console.Waiting(wait)
		if err := r.sleep(ctx, wait); err != nil {
			interrupted = err
			break
		}
	}

	return state, r.finalize(state, interrupted)
}

// runObjective takes one objective from RUNNING to COMPLETED or FAILED.
func (r *Runner) runObjective(ctx context.Context, objective, targetSite string) ExecutionRecord {
	start := r.now()
	rec := ExecutionRecord{
		Objective: objective,
		Status:    StatusRunning,
		StartTime: start,
	}

	p := r.selector.Select()
	rec.DeviceClass = p.DeviceClass
	rec.UserAgent = p.UserAgent
	r.console.Profile(p)

	rec.InteractionSeconds = r.interaction.DrawSeconds(r.rng)
	spec := r.composer.Compose(objective, p, targetSite, rec.InteractionSeconds)

	result, err := r.invoke(ctx, objective, p, spec.Text)
	if err != nil {
		rec.Status = StatusFailed
		rec.ResultText = fmt.Sprintf("Error: %v", err)
		r.console.EngineError(err)
	} else {
		rec.Status = StatusCompleted
		rec.Completed = true
		rec.ResultText = result
	}

	rec.FoundTarget = rec.Completed && r.classify(rec.ResultText, targetSite)
	r.console.Outcome(rec.FoundTarget)

	rec.DurationSeconds = roundSeconds(r.now().Sub(start))
	return rec
}

// invoke swaps in a fresh handle for p and executes the task in it. The
// handle stays current until the next objective or the end of the session.
func (r *Runner) invoke(ctx context.Context, objective string, p profile.ClientProfile, text string) (string, error) {
	r.release()

	h, err := r.engine.Open(ctx, p)
	if err != nil {
		if h != nil {
			_ = h.Close()
		}
		return "", &engine.InvocationError{Op: engine.OpOpen, Objective: objective, Err: err}
	}
	r.current = h

	result, err := r.engine.Execute(ctx, h, text)
	if err != nil {
		return "", &engine.InvocationError{Op: engine.OpExecute, Objective: objective, Err: err}
	}
	return result, nil
}

// release closes the current handle, if any.
func (r *Runner) release() {
	if r.current == nil {
		return
	}
	h := r.current
	r.current = nil
	if err := h.Close(); err != nil {
		r.console.Warningf("failed to close browser: %v", err)
	}
}

func (r *Runner) finalize(state *State, interrupted error) error {
	r.release()

	state.Phase = PhaseFinalizing
	state.SessionDurationSeconds = roundSeconds(r.now().Sub(state.StartTime))

	var errs []error
	if interrupted != nil {
		r.console.Warningf("session interrupted after %d of its objectives", len(state.ExecutionRecords))
		errs = append(errs, fmt.Errorf("%w: %w", ErrInterrupted, interrupted))
	}

	path, err := r.persister.Write(state)
	if err != nil {
		var pe *PersistenceError
		if !errors.As(err, &pe) {
			err = &PersistenceError{Err: err}
		}
		r.console.Errorf("%v", err)
		errs = append(errs, err)
	} else {
		state.ReportPath = path
		state.Phase = PhasePersisted
		r.console.ReportSaved(path)
	}

	r.console.Summary(state)
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
