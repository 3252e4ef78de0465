package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/serpwalk/pkg/logging"
	"github.com/entrhq/serpwalk/pkg/profile"
)

const (
	// DefaultTimeout bounds every single page operation
	DefaultTimeout = 30 * time.Second

	defaultLocale = "en-US"
)

// Options configures how browsers are launched.
type Options struct {
	// Headless runs Chromium without a window
	Headless bool

	// ExecutablePath points to a local Chromium-based browser (Brave, Chrome).
	// Empty uses the Playwright-managed Chromium.
	ExecutablePath string

	// SlowMo delays every Playwright operation
	SlowMo time.Duration

	// DefaultTimeout bounds every page operation. Zero means DefaultTimeout.
	DefaultTimeout time.Duration

	// Install downloads the Playwright driver and Chromium when missing
	Install bool
}

// Launcher starts the Playwright driver lazily and launches one browser per
// session. It is safe for concurrent use.
type Launcher struct {
	opts   Options
	logger *logging.Logger

	mu          sync.Mutex
	playwright  *playwright.Playwright
	initialized bool
	sessions    map[*Session]struct{}
}

// NewLauncher creates a launcher. A nil logger discards output.
func NewLauncher(opts Options, logger *logging.Logger) *Launcher {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	return &Launcher{
		opts:     opts,
		logger:   logger,
		sessions: make(map[*Session]struct{}),
	}
}

// runOptions keeps the driver quiet so it does not interleave with console
// output. A custom executable skips the bundled browser download.
func runOptions(opts Options) *playwright.RunOptions {
	return &playwright.RunOptions{
		Browsers:            []string{"chromium"},
		SkipInstallBrowsers: opts.ExecutablePath != "",
		Verbose:             false,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	}
}

// initialize installs (optionally) and starts the Playwright driver.
// Callers hold l.mu.
func (l *Launcher) initialize() error {
	if l.initialized {
		return nil
	}

	opts := runOptions(l.opts)
	if l.opts.Install {
		l.logger.Infof("installing playwright driver (browsers=%v, skip_browsers=%t)", opts.Browsers, opts.SkipInstallBrowsers)
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

// Launch starts a fresh browser configured for the profile and opens one
// page. Nothing is left running when it fails.
func (l *Launcher) Launch(ctx context.Context, p profile.ClientProfile) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.initialize(); err != nil {
		return nil, err
	}

	browser, err := l.playwright.Chromium.Launch(launchOptions(l.opts))
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(contextOptions(p))
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	timeoutMS := float64(l.opts.DefaultTimeout.Milliseconds())
	page.SetDefaultTimeout(timeoutMS)
	page.SetDefaultNavigationTimeout(timeoutMS)

	s := &Session{
		browser: browser,
		context: bctx,
		page:    page,
		profile: p,
		logger:  l.logger,
	}
	s.onClose = func() { l.forget(s) }
	l.sessions[s] = struct{}{}

	l.logger.Debugf("launched browser for %s", p)
	return s, nil
}

func (l *Launcher) forget(s *Session) {
	l.mu.Lock()
	delete(l.sessions, s)
	l.mu.Unlock()
}

// Shutdown closes any sessions still open and stops the driver.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	open := make([]*Session, 0, len(l.sessions))
	for s := range l.sessions {
		open = append(open, s)
	}
	l.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.playwright != nil {
		if err := l.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		l.playwright = nil
		l.initialized = false
	}
	return errors.Join(errs...)
}

func launchOptions(opts Options) playwright.BrowserTypeLaunchOptions {
	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--disable-blink-features=AutomationControlled"},
	}
	if opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(opts.ExecutablePath)
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	return launch
}

func contextOptions(p profile.ClientProfile) playwright.BrowserNewContextOptions {
	scale := p.ScaleFactor
	if scale <= 0 {
		scale = profile.DesktopScaleFactor
	}
	return playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(p.UserAgent),
		Viewport: &playwright.Size{
			Width:  p.Viewport.Width,
			Height: p.Viewport.Height,
		},
		DeviceScaleFactor: playwright.Float(scale),
		IsMobile:          playwright.Bool(p.IsMobile()),
		HasTouch:          playwright.Bool(p.IsMobile()),
		Locale:            playwright.String(defaultLocale),
	}
}
