package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/serpwalk/pkg/profile"
)

func TestLaunchOptions(t *testing.T) {
	opts := launchOptions(Options{Headless: true})
	require.NotNil(t, opts.Headless)
	assert.True(t, *opts.Headless)
	assert.Nil(t, opts.ExecutablePath)
	assert.Nil(t, opts.SlowMo)
	assert.Contains(t, opts.Args, "--disable-blink-features=AutomationControlled")

	opts = launchOptions(Options{ExecutablePath: "/usr/bin/brave-browser", SlowMo: 100 * time.Millisecond})
	assert.False(t, *opts.Headless)
	require.NotNil(t, opts.ExecutablePath)
	assert.Equal(t, "/usr/bin/brave-browser", *opts.ExecutablePath)
	require.NotNil(t, opts.SlowMo)
	assert.Equal(t, 100.0, *opts.SlowMo)
}

func TestRunOptions(t *testing.T) {
	assert.False(t, runOptions(Options{}).SkipInstallBrowsers)
	assert.True(t, runOptions(Options{ExecutablePath: "/opt/brave"}).SkipInstallBrowsers)
	assert.Equal(t, []string{"chromium"}, runOptions(Options{}).Browsers)
}

func TestContextOptions(t *testing.T) {
	mobile := profile.ClientProfile{
		DeviceClass: profile.Mobile,
		UserAgent:   "Mozilla/5.0 (iPhone)",
		Viewport:    profile.MobileViewport,
		ScaleFactor: profile.MobileScaleFactor,
	}
	opts := contextOptions(mobile)
	assert.Equal(t, "Mozilla/5.0 (iPhone)", *opts.UserAgent)
	assert.Equal(t, 390, opts.Viewport.Width)
	assert.Equal(t, 844, opts.Viewport.Height)
	assert.Equal(t, 2.0, *opts.DeviceScaleFactor)
	assert.True(t, *opts.IsMobile)
	assert.True(t, *opts.HasTouch)
	assert.Equal(t, "en-US", *opts.Locale)

	desktop := contextOptions(profile.ClientProfile{DeviceClass: profile.Desktop, Viewport: profile.DesktopViewport})
	assert.False(t, *desktop.IsMobile)
	assert.False(t, *desktop.HasTouch)
	assert.Equal(t, 1.0, *desktop.DeviceScaleFactor, "zero scale falls back to desktop")
}

func TestLauncher_CancelledContext(t *testing.T) {
	l := NewLauncher(Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Launch(ctx, profile.ClientProfile{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, l.Shutdown(), "shutdown without a driver is a no-op")
}

func TestElementSelector(t *testing.T) {
	assert.Equal(t, `[data-serpwalk-id="12"]`, elementSelector(12))
}
