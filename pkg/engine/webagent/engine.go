// Package webagent implements engine.Engine with an LLM planner driving a
// Playwright browser through an observe, plan, act loop.
package webagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"golang.org/x/time/rate"

	"github.com/entrhq/serpwalk/pkg/browser"
	"github.com/entrhq/serpwalk/pkg/engine"
	"github.com/entrhq/serpwalk/pkg/llm"
	"github.com/entrhq/serpwalk/pkg/logging"
	"github.com/entrhq/serpwalk/pkg/profile"
)

const (
	// DefaultMaxSteps bounds one task's planner turns
	DefaultMaxSteps = 40

	defaultMaxElements  = 80
	maxPlannerFailures  = 3
	maxInvalidActions   = 5
	defaultRetryBackoff = 2 * time.Second
)

var (
	// ErrMaxSteps is returned when the planner never reports done.
	ErrMaxSteps = errors.New("max steps reached")

	// ErrForeignHandle is returned when Execute gets a handle from another engine.
	ErrForeignHandle = errors.New("handle was not opened by this engine")
)

// Page is the browser surface the planner acts on. *browser.Session
// implements it.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, id int) error
	Type(ctx context.Context, id int, text string, submit bool) error
	Scroll(ctx context.Context, dir browser.Direction) error
	GoBack(ctx context.Context) error
	Wait(ctx context.Context, d time.Duration) error
	Observe(ctx context.Context) (*browser.Observation, error)
	URL() string
	Close() error
}

// Launcher starts one Page per client profile.
type Launcher interface {
	Launch(ctx context.Context, p profile.ClientProfile) (Page, error)
	Shutdown() error
}

// Chromium adapts a browser.Launcher to Launcher.
func Chromium(l *browser.Launcher) Launcher {
	return chromium{l}
}

type chromium struct {
	*browser.Launcher
}

func (c chromium) Launch(ctx context.Context, p profile.ClientProfile) (Page, error) {
	s, err := c.Launcher.Launch(ctx, p)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var (
	_ engine.Engine = (*Engine)(nil)
	_ Page          = (*browser.Session)(nil)
)

// Engine runs natural-language tasks with an LLM planner.
type Engine struct {
	provider     llm.Provider
	launcher     Launcher
	logger       *logging.Logger
	limiter      *rate.Limiter
	blocked      []glob.Glob
	maxSteps     int
	maxElements  int
	historySize  int
	retryBackoff time.Duration
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) error {
		if l != nil {
			e.logger = l
		}
		return nil
	}
}

// WithMaxSteps bounds the planner turns per task.
func WithMaxSteps(n int) Option {
	return func(e *Engine) error {
		if n <= 0 {
			return fmt.Errorf("max steps must be positive, got %d", n)
		}
		e.maxSteps = n
		return nil
	}
}

// WithRequestsPerMinute throttles planner calls. Zero disables throttling.
func WithRequestsPerMinute(rpm int) Option {
	return func(e *Engine) error {
		if rpm < 0 {
			return fmt.Errorf("requests per minute must not be negative, got %d", rpm)
		}
		if rpm == 0 {
			e.limiter = rate.NewLimiter(rate.Inf, 1)
			return nil
		}
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		return nil
	}
}

// WithBlockedURLs refuses navigation to URLs matching any of the glob
// patterns. Pages reached by clicking are left immediately.
func WithBlockedURLs(patterns []string) Option {
	return func(e *Engine) error {
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				return fmt.Errorf("invalid blocked url pattern %q: %w", p, err)
			}
			e.blocked = append(e.blocked, g)
		}
		return nil
	}
}

// WithHistorySize sets how many past steps the planner sees.
func WithHistorySize(n int) Option {
	return func(e *Engine) error {
		if n <= 0 {
			return fmt.Errorf("history size must be positive, got %d", n)
		}
		e.historySize = n
		return nil
	}
}

// WithMaxElements caps the elements listed per observation.
func WithMaxElements(n int) Option {
	return func(e *Engine) error {
		if n <= 0 {
			return fmt.Errorf("max elements must be positive, got %d", n)
		}
		e.maxElements = n
		return nil
	}
}

// New creates an engine that plans with provider and browses with launcher.
func New(provider llm.Provider, launcher Launcher, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	if launcher == nil {
		return nil, fmt.Errorf("browser launcher is required")
	}

	e := &Engine{
		provider:     provider,
		launcher:     launcher,
		logger:       logging.Discard(),
		limiter:      rate.NewLimiter(rate.Inf, 1),
		maxSteps:     DefaultMaxSteps,
		maxElements:  defaultMaxElements,
		historySize:  DefaultHistorySize,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

type handle struct {
	page    Page
	profile profile.ClientProfile
}

func (h *handle) Close() error {
	return h.page.Close()
}

// Open launches a browser for the profile.
func (e *Engine) Open(ctx context.Context, p profile.ClientProfile) (engine.Handle, error) {
	page, err := e.launcher.Launch(ctx, p)
	if err != nil {
		return nil, err
	}
	return &handle{page: page, profile: p}, nil
}

// Shutdown stops the browser driver.
func (e *Engine) Shutdown() error {
	return e.launcher.Shutdown()
}

// Execute runs task in h's browser until the planner reports done.
func (e *Engine) Execute(ctx context.Context, h engine.Handle, task string) (string, error) {
	hh, ok := h.(*handle)
	if !ok || hh == nil {
		return "", ErrForeignHandle
	}

	page := hh.page
	hist := newHistory(e.historySize)
	plannerFailures := 0
	invalid := 0

	for step := 1; step <= e.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		obs, err := page.Observe(ctx)
		if err != nil {
			return "", fmt.Errorf("step %d: %w", step, err)
		}
		e.logger.Debugf("step %d: %s (%d elements)", step, obs.URL, len(obs.Elements))

		reply, err := e.plan(ctx, hist, task, obs)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			plannerFailures++
			e.logger.Warnf("step %d: planner failed (%d/%d): %v", step, plannerFailures, maxPlannerFailures, err)
			if plannerFailures >= maxPlannerFailures || !retryable(err) {
				return "", fmt.Errorf("planner failed: %w", err)
			}
			if err := page.Wait(ctx, e.retryBackoff*time.Duration(plannerFailures)); err != nil {
				return "", err
			}
			continue
		}
		plannerFailures = 0

		action, err := parseAction(reply.Content)
		if err != nil {
			invalid++
			e.logger.Warnf("step %d: %v", step, err)
			if invalid >= maxInvalidActions {
				return "", fmt.Errorf("planner produced %d invalid actions: %w", invalid, err)
			}
			hist.add("", truncate(reply.Content, 200), "rejected: "+err.Error())
			continue
		}
		invalid = 0

		if action.Thought == "" {
			action.Thought = reply.Thinking
		}
		e.logger.Infof("step %d: %s", step, action)

		if action.Kind == KindDone {
			report := action.Report
			if report == "" {
				report = "Task finished without a report."
			}
			return report, nil
		}

		result, err := e.perform(ctx, page, action)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			result = "failed: " + err.Error()
			e.logger.Debugf("step %d: %s", step, result)
		}
		hist.add(truncate(action.Thought, 300), action.String(), result)
	}

	return "", fmt.Errorf("%w (%d)", ErrMaxSteps, e.maxSteps)
}

func (e *Engine) plan(ctx context.Context, hist *history, task string, obs *browser.Observation) (*llm.Message, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.provider.Complete(ctx, buildMessages(task, hist, obs, e.maxElements))
}

// perform executes one action and describes the outcome for the planner.
func (e *Engine) perform(ctx context.Context, page Page, a Action) (string, error) {
	switch a.Kind {
	case KindNavigate:
		if e.isBlocked(a.URL) {
			return "blocked: navigation to " + a.URL + " is not allowed", nil
		}
		if err := page.Navigate(ctx, a.URL); err != nil {
			return "", err
		}
	case KindClick:
		if err := page.Click(ctx, a.ID); err != nil {
			return "", err
		}
	case KindType:
		if err := page.Type(ctx, a.ID, a.Text, a.Submit); err != nil {
			return "", err
		}
	case KindScroll:
		if err := page.Scroll(ctx, a.Direction); err != nil {
			return "", err
		}
	case KindWait:
		if err := page.Wait(ctx, a.Wait); err != nil {
			return "", err
		}
		return "waited " + a.Wait.String(), nil
	case KindGoBack:
		if err := page.GoBack(ctx); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidAction, a.Kind)
	}

	if url := page.URL(); e.isBlocked(url) {
		if err := page.GoBack(ctx); err != nil {
			return "", fmt.Errorf("left blocked page %s: %w", url, err)
		}
		return "blocked: " + url + " is not allowed, went back", nil
	}
	return "ok, now at " + page.URL(), nil
}

func (e *Engine) isBlocked(url string) bool {
	for _, g := range e.blocked {
		if g.Match(url) {
			return true
		}
	}
	return false
}

func retryable(err error) bool {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// transport errors
	return true
}

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
