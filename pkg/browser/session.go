package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/tidwall/gjson"

	"github.com/entrhq/serpwalk/pkg/logging"
	"github.com/entrhq/serpwalk/pkg/profile"
)

const (
	// DefaultMaxElements caps how many elements one observation tags
	DefaultMaxElements = 150

	// DefaultMaxTextLength caps the page text in one observation
	DefaultMaxTextLength = 4000

	settleDelay = 500 * time.Millisecond
)

// Direction is a scroll direction.
type Direction string

const (
	// Down scrolls towards the end of the page
	Down Direction = "down"
	// Up scrolls towards the top of the page
	Up Direction = "up"
)

// Session is one launched browser with a single active page.
type Session struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	profile profile.ClientProfile
	logger  *logging.Logger

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

// Close releases the page, context and browser. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.context != nil {
			if err := s.context.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close context: %w", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}

// Navigate loads url and waits for the DOM to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitUntil := playwright.WaitUntilState("domcontentloaded")
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{WaitUntil: &waitUntil}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return s.settle(ctx)
}

// Click clicks (or taps, on mobile profiles) the element tagged with id by
// the last observation.
func (s *Session) Click(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	loc := s.element(id)
	if err := loc.ScrollIntoViewIfNeeded(); err != nil {
		return fmt.Errorf("element %d not found: %w", id, err)
	}

	var err error
	if s.profile.IsMobile() {
		err = loc.Tap()
	} else {
		err = loc.Click()
	}
	if err != nil {
		return fmt.Errorf("click on element %d failed: %w", id, err)
	}

	s.followPopup()
	return s.settle(ctx)
}

// Type fills the element tagged with id and optionally presses Enter.
func (s *Session) Type(ctx context.Context, id int, text string, submit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	loc := s.element(id)
	if err := loc.Fill(text); err != nil {
		return fmt.Errorf("typing into element %d failed: %w", id, err)
	}
	if submit {
		if err := loc.Press("Enter"); err != nil {
			return fmt.Errorf("submit on element %d failed: %w", id, err)
		}
	}
	return s.settle(ctx)
}

// Scroll moves the viewport by roughly 70% of its height.
func (s *Session) Scroll(ctx context.Context, dir Direction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dy := 0.7
	switch dir {
	case Down:
	case Up:
		dy = -dy
	default:
		return fmt.Errorf("unknown scroll direction %q", dir)
	}

	if _, err := s.page.Evaluate(scrollScript, dy); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return s.settle(ctx)
}

// GoBack navigates one entry back in history.
func (s *Session) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitUntil := playwright.WaitUntilState("domcontentloaded")
	if _, err := s.page.GoBack(playwright.PageGoBackOptions{WaitUntil: &waitUntil}); err != nil {
		return fmt.Errorf("go back failed: %w", err)
	}
	return s.settle(ctx)
}

// Wait pauses for d or until ctx is done.
func (s *Session) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// URL returns the current page URL.
func (s *Session) URL() string {
	return s.page.URL()
}

// Observe tags the interactive elements of the current page and returns a
// snapshot of it.
func (s *Session) Observe(ctx context.Context) (*Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.page.Evaluate(observeScript, DefaultMaxElements)
	if err != nil {
		return nil, fmt.Errorf("observe failed: %w", err)
	}
	str, _ := raw.(string)
	elements, err := parseElements(str)
	if err != nil {
		return nil, err
	}

	obs := &Observation{
		URL:      s.page.URL(),
		Elements: elements,
	}

	if title, err := s.page.Title(); err == nil {
		obs.Title = title
	}

	if content, err := s.page.Content(); err == nil {
		if text, err := ExtractText(content, DefaultMaxTextLength); err == nil {
			obs.Text = text.Text
			obs.Truncated = text.Truncated
			obs.Description = text.Description
			if obs.Title == "" {
				obs.Title = text.Title
			}
		} else {
			s.logger.Debugf("text extraction failed on %s: %v", obs.URL, err)
		}
	}

	if state, err := s.page.Evaluate(scrollStateScript); err == nil {
		if str, ok := state.(string); ok {
			doc := gjson.Parse(str)
			obs.ScrollY = int(doc.Get("y").Int())
			obs.PageHeight = int(doc.Get("height").Int())
			obs.Viewport = int(doc.Get("viewport").Int())
		}
	}

	return obs, nil
}

func (s *Session) element(id int) playwright.Locator {
	return s.page.Locator(elementSelector(id)).First()
}

func elementSelector(id int) string {
	return "[" + ElementAttribute + "=\"" + strconv.Itoa(id) + "\"]"
}

// followPopup switches to the newest page when a click opened a new tab.
func (s *Session) followPopup() {
	pages := s.context.Pages()
	if len(pages) < 2 {
		return
	}
	newest := pages[len(pages)-1]
	if newest == s.page {
		return
	}
	old := s.page
	s.page = newest
	_ = old.Close()
	s.logger.Debugf("followed new tab to %s", newest.URL())
}

// settle gives the page a moment to react after an action.
func (s *Session) settle(ctx context.Context) error {
	state := playwright.LoadState("domcontentloaded")
	_ = s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: &state})
	return s.Wait(ctx, settleDelay)
}
