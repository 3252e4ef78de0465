package session

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/entrhq/serpwalk/pkg/engine"
	"github.com/entrhq/serpwalk/pkg/profile"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var queryPattern = regexp.MustCompile(`Search for ("(?:[^"\\]|\\.)*")`)

type fakeHandle struct {
	eng    *fakeEngine
	closed int
}

func (h *fakeHandle) Close() error {
	h.eng.mu.Lock()
	defer h.eng.mu.Unlock()
	h.closed++
	h.eng.live--
	return nil
}

// fakeEngine answers every task from results, keyed by the searched query.
// A non-nil openErr fails every Open. With partialOpen set the failed Open
// still hands back a live handle.
type fakeEngine struct {
	mu          sync.Mutex
	results     map[string]string
	fail        map[string]error
	openErr     error
	partialOpen bool
	onRun       func(query string)

	handles  []*fakeHandle
	profiles []profile.ClientProfile
	tasks    []string
	live     int
	maxLive  int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		results: map[string]string{},
		fail:    map[string]error{},
	}
}

func (e *fakeEngine) Open(_ context.Context, p profile.ClientProfile) (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profiles = append(e.profiles, p)
	if e.openErr != nil && !e.partialOpen {
		return nil, e.openErr
	}
	h := &fakeHandle{eng: e}
	e.handles = append(e.handles, h)
	e.live++
	if e.live > e.maxLive {
		e.maxLive = e.live
	}
	return h, e.openErr
}

func (e *fakeEngine) Execute(_ context.Context, _ engine.Handle, task string) (string, error) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	query := queryOf(task)
	result, err := e.results[query], e.fail[query]
	onRun := e.onRun
	e.mu.Unlock()

	if onRun != nil {
		onRun(query)
	}
	if err != nil {
		return "", err
	}
	return result, nil
}

func queryOf(task string) string {
	m := queryPattern.FindStringSubmatch(task)
	if len(m) != 2 {
		return ""
	}
	q, err := strconv.Unquote(m[1])
	if err != nil {
		return ""
	}
	return q
}

// memPersister keeps the written state in memory.
type memPersister struct {
	states []*State
	err    error
}

func (p *memPersister) Write(state *State) (string, error) {
	p.states = append(p.states, state)
	if p.err != nil {
		return "", p.err
	}
	return "mem://report.json", nil
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestRunner(t *testing.T, eng engine.Engine, p Persister, opts ...Option) *Runner {
	t.Helper()
	base := []Option{
		WithPersister(p),
		WithRand(rand.New(rand.NewSource(7))),
		WithSleeper(noSleep),
	}
	r, err := NewRunner(eng, append(base, opts...)...)
	require.NoError(t, err)
	return r
}

func TestRunner_FailureIsolation(t *testing.T) {
	eng := newFakeEngine()
	eng.results["a"] = "ok"
	eng.results["c"] = "ok"
	eng.fail["b"] = errors.New("browser crashed")
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(context.Background(), []string{"a", "b", "c"}, "example.com")
	require.NoError(t, err)

	require.Len(t, state.ExecutionRecords, 3)
	completed := []bool{}
	for _, rec := range state.ExecutionRecords {
		completed = append(completed, rec.Completed)
	}
	assert.Equal(t, []bool{true, false, true}, completed)
	assert.Equal(t, 3, state.TotalInteractions)
	assert.Equal(t, 1, state.FailedCount())

	failed := state.ExecutionRecords[1]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.False(t, failed.FoundTarget)
	assert.Contains(t, failed.ResultText, "Error: ")
	assert.Contains(t, failed.ResultText, "browser crashed")
}

func TestRunner_PartialOpenHandleClosed(t *testing.T) {
	eng := newFakeEngine()
	eng.openErr = errors.New("half open")
	eng.partialOpen = true
	eng.results["a"] = "visited target"
	eng.results["b"] = "visited target"
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(context.Background(), []string{"a", "b"}, "target")
	require.NoError(t, err)

	require.Len(t, eng.handles, 2)
	for _, h := range eng.handles {
		assert.Equal(t, 1, h.closed)
	}
	assert.Zero(t, eng.live)
	assert.Empty(t, eng.tasks)
	assert.Equal(t, 2, state.TotalInteractions)
	assert.Zero(t, state.TargetVisits)
	for _, rec := range state.ExecutionRecords {
		assert.False(t, rec.Completed)
		assert.Contains(t, rec.ResultText, "half open")
	}
}

func TestRunner_QueryWithQuotes(t *testing.T) {
	eng := newFakeEngine()
	objective := `murudeshwar's "best" stay`
	eng.results[objective] = "visited target"
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(context.Background(), []string{objective}, "target")
	require.NoError(t, err)

	require.Len(t, eng.tasks, 1)
	assert.Equal(t, objective, queryOf(eng.tasks[0]))
	assert.Equal(t, 1, state.TargetVisits)
}

func TestRunner_CountsVisits(t *testing.T) {
	eng := newFakeEngine()
	eng.results["a"] = "Visited target found"
	eng.fail["b"] = errors.New("boom")
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(context.Background(), []string{"a", "b"}, "target")
	require.NoError(t, err)

	assert.Equal(t, 2, state.TotalInteractions)
	assert.Equal(t, 1, state.TargetVisits)
	assert.True(t, state.ExecutionRecords[0].FoundTarget)
	assert.False(t, state.ExecutionRecords[1].Completed)
	assert.Equal(t, "Visited target found", state.ExecutionRecords[0].ResultText)
}

func TestRunner_PreservesOrder(t *testing.T) {
	eng := newFakeEngine()
	objectives := []string{"first", "second", "third", "fourth"}
	for _, o := range objectives {
		eng.results[o] = "done " + o
	}
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(context.Background(), objectives, "example.com")
	require.NoError(t, err)

	require.Len(t, state.ExecutionRecords, len(objectives))
	for i, o := range objectives {
		assert.Equal(t, o, state.ExecutionRecords[i].Objective)
		assert.Equal(t, o, queryOf(eng.tasks[i]))
		assert.Equal(t, "done "+o, state.ExecutionRecords[i].ResultText)
	}
}

func TestRunner_OneHandleAtATime(t *testing.T) {
	eng := newFakeEngine()
	eng.results["a"] = "ok"
	eng.fail["b"] = errors.New("fail")
	eng.results["c"] = "ok"
	p := &memPersister{}

	_, err := newTestRunner(t, eng, p).Run(context.Background(), []string{"a", "b", "c"}, "example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, eng.maxLive)
	assert.Equal(t, 0, eng.live)
	require.Len(t, eng.handles, 3)
	for i, h := range eng.handles {
		assert.Equal(t, 1, h.closed, "handle %d", i)
	}
}

func TestRunner_OpenFailureIsRecorded(t *testing.T) {
	eng := newFakeEngine()
	eng.openErr = errors.New("launch failed")
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(context.Background(), []string{"a", "b"}, "example.com")
	require.NoError(t, err)

	assert.Equal(t, 2, state.TotalInteractions)
	for _, rec := range state.ExecutionRecords {
		assert.False(t, rec.Completed)
		assert.Contains(t, rec.ResultText, "engine open failed")
	}
	assert.Empty(t, eng.tasks)
}

func TestRunner_RecordsProfileAndInteraction(t *testing.T) {
	eng := newFakeEngine()
	p := &memPersister{}
	rg := Range{Min: 30 * time.Second, Max: 90 * time.Second}

	objectives := make([]string, 50)
	for i := range objectives {
		objectives[i] = "q"
	}
	state, err := newTestRunner(t, eng, p, WithInteraction(rg)).Run(context.Background(), objectives, "example.com")
	require.NoError(t, err)

	require.Len(t, eng.profiles, len(objectives))
	for i, rec := range state.ExecutionRecords {
		assert.GreaterOrEqual(t, rec.InteractionSeconds, 30)
		assert.LessOrEqual(t, rec.InteractionSeconds, 90)
		assert.Equal(t, eng.profiles[i].DeviceClass, rec.DeviceClass)
		assert.Equal(t, eng.profiles[i].UserAgent, rec.UserAgent)
		assert.Contains(t, eng.tasks[i], "approximately")
	}
}

func TestRunner_Pacing(t *testing.T) {
	eng := newFakeEngine()
	p := &memPersister{}
	var waits []time.Duration
	sleeper := func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	rg := Range{Min: 10 * time.Second, Max: 30 * time.Second}

	_, err := newTestRunner(t, eng, p, WithSleeper(sleeper), WithPacing(rg)).
		Run(context.Background(), []string{"a", "b", "c"}, "example.com")
	require.NoError(t, err)

	require.Len(t, waits, 2, "no wait after the last objective")
	for _, w := range waits {
		assert.GreaterOrEqual(t, w, rg.Min)
		assert.LessOrEqual(t, w, rg.Max)
	}
}

func TestRunner_Interrupted(t *testing.T) {
	eng := newFakeEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng.onRun = func(query string) {
		if query == "b" {
			cancel()
		}
	}
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(ctx, []string{"a", "b", "c", "d"}, "example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, state)
	assert.Len(t, state.ExecutionRecords, 2)
	assert.Equal(t, 2, state.TotalInteractions)
	assert.Equal(t, PhasePersisted, state.Phase)
	require.Len(t, p.states, 1, "interrupted session is still persisted")
	assert.Equal(t, 0, eng.live)
}

func TestRunner_InterruptedDuringLastObjective(t *testing.T) {
	eng := newFakeEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng.onRun = func(query string) {
		if query == "b" {
			cancel()
		}
	}
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(ctx, []string{"a", "b"}, "example.com")
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Len(t, state.ExecutionRecords, 2)
	require.Len(t, p.states, 1)
}

func TestRunner_InterruptedDuringPacing(t *testing.T) {
	eng := newFakeEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sleeper := func(ctx context.Context, _ time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p, WithSleeper(sleeper)).Run(ctx, []string{"a", "b"}, "example.com")
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Len(t, state.ExecutionRecords, 1)
	assert.Equal(t, 0, eng.live)
}

func TestRunner_PersistenceFailure(t *testing.T) {
	eng := newFakeEngine()
	eng.results["a"] = "Visited example.com"
	writer := NewReportWriter(afero.NewReadOnlyFs(afero.NewMemMapFs()), "reports", true)

	state, err := newTestRunner(t, eng, writer).Run(context.Background(), []string{"a"}, "example.com")
	require.Error(t, err)

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "reports", pe.Dir)

	require.NotNil(t, state)
	assert.Equal(t, 1, state.TotalInteractions)
	assert.Equal(t, 1, state.TargetVisits)
	assert.Equal(t, PhaseFinalizing, state.Phase)
	assert.Empty(t, state.ReportPath)
}

func TestRunner_WrapsForeignPersisterError(t *testing.T) {
	p := &memPersister{err: errors.New("disk full")}

	_, err := newTestRunner(t, newFakeEngine(), p).Run(context.Background(), []string{"a"}, "example.com")

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.EqualError(t, pe.Err, "disk full")
}

func TestRunner_EmptyObjectives(t *testing.T) {
	eng := newFakeEngine()
	p := &memPersister{}

	state, err := newTestRunner(t, eng, p).Run(context.Background(), nil, "example.com")
	require.NoError(t, err)

	assert.Empty(t, state.ExecutionRecords)
	assert.Equal(t, 0, state.TotalInteractions)
	assert.Empty(t, eng.handles)
	require.Len(t, p.states, 1)
}

func TestRunner_Duration(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time {
		now = now.Add(1234 * time.Millisecond)
		return now
	}
	p := &memPersister{}

	state, err := newTestRunner(t, newFakeEngine(), p, WithClock(clock), WithRunID("run-1")).
		Run(context.Background(), []string{"a"}, "example.com")
	require.NoError(t, err)

	assert.Equal(t, "run-1", state.RunID)
	assert.Equal(t, 1.23, state.ExecutionRecords[0].DurationSeconds)
	assert.Equal(t, 3.7, state.SessionDurationSeconds)
	assert.Equal(t, "mem://report.json", state.ReportPath)
}

func TestRunner_ConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	eng := newFakeEngine()
	eng.results["a"] = "Visited example.com"
	p := &memPersister{}

	_, err := newTestRunner(t, eng, p, WithConsole(NewConsole(&buf, LogLevelVerbose))).
		Run(context.Background(), []string{"a"}, "example.com")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[1/1] a")
	assert.Contains(t, out, "Target site visited")
	assert.Contains(t, out, "SESSION SUMMARY")
	assert.Contains(t, out, "Target visits: 1")
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(nil, WithPersister(&memPersister{}))
	assert.Error(t, err)

	_, err = NewRunner(newFakeEngine())
	assert.Error(t, err, "persister required")

	_, err = NewRunner(newFakeEngine(), WithPersister(&memPersister{}),
		WithPacing(Range{Min: 5 * time.Second, Max: time.Second}))
	assert.Error(t, err)
}

func TestRange_Draw(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rg := Range{Min: 30 * time.Second, Max: 90 * time.Second}
	seen := map[int]bool{}
	for i := 0; i < 5000; i++ {
		s := rg.DrawSeconds(rng)
		require.GreaterOrEqual(t, s, 30)
		require.LessOrEqual(t, s, 90)
		seen[s] = true
	}
	assert.True(t, seen[30], "lower bound is inclusive")
	assert.True(t, seen[90], "upper bound is inclusive")

	fixed := Range{Min: time.Second, Max: time.Second}
	assert.Equal(t, time.Second, fixed.draw(rng))
	assert.Equal(t, 1, fixed.DrawSeconds(rng))
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"quiet":   LogLevelQuiet,
		"normal":  LogLevelNormal,
		"verbose": LogLevelVerbose,
		"DEBUG":   LogLevelDebug,
		"":        LogLevelNormal,
		"loud":    LogLevelNormal,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "input %q", in)
	}
}
