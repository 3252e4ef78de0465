// Package profile produces randomized client profiles (device class, user
// agent and viewport) for browsing sessions.
//
// A fresh profile is drawn for every objective and discarded after use:
//
//	selector := profile.NewSelector(profile.DefaultAgents(), rand.New(rand.NewSource(42)))
//	p := selector.Select()
//	fmt.Println(p.DeviceClass, p.Viewport.Width, p.Viewport.Height)
package profile

import (
	"fmt"
	"math/rand"
	"time"
)

// DeviceClass identifies the kind of device a profile emulates.
type DeviceClass string

const (
	// Desktop emulates a full-size desktop browser window
	Desktop DeviceClass = "desktop"
	// Mobile emulates a touch-screen phone
	Mobile DeviceClass = "mobile"
)

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Fixed viewports per device class.
var (
	DesktopViewport = Viewport{Width: 1920, Height: 1080}
	MobileViewport  = Viewport{Width: 390, Height: 844}
)

// Scale factors per device class.
const (
	DesktopScaleFactor = 1.0
	MobileScaleFactor  = 2.0
)

// ClientProfile is the randomized client configuration for one objective.
type ClientProfile struct {
	DeviceClass DeviceClass `json:"device_class"`
	UserAgent   string      `json:"user_agent"`
	Viewport    Viewport    `json:"viewport"`
	ScaleFactor float64     `json:"scale_factor"`
}

// IsMobile reports whether the profile emulates a mobile device.
func (p ClientProfile) IsMobile() bool {
	return p.DeviceClass == Mobile
}

// String returns a short human-readable description of the profile.
func (p ClientProfile) String() string {
	return fmt.Sprintf("%s %dx%d@%.1fx", p.DeviceClass, p.Viewport.Width, p.Viewport.Height, p.ScaleFactor)
}

// Agents holds the configured user agent lists per device class.
type Agents struct {
	Desktop []string `yaml:"desktop_user_agents" json:"desktop_user_agents"`
	Mobile  []string `yaml:"mobile_user_agents" json:"mobile_user_agents"`
}

// Validate checks that both device classes have at least one user agent.
func (a Agents) Validate() error {
	if len(a.Desktop) == 0 {
		return fmt.Errorf("at least one desktop user agent is required")
	}
	if len(a.Mobile) == 0 {
		return fmt.Errorf("at least one mobile user agent is required")
	}
	return nil
}

// Selector draws client profiles from the configured agent lists.
// It is not safe for concurrent use; the random source is owned by the caller.
type Selector struct {
	agents Agents
	rng    *rand.Rand
}

// NewSelector creates a selector over the given agent lists. A nil rng gets a
// time-seeded source. Pass a seeded source for reproducible sequences.
func NewSelector(agents Agents, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{
		agents: agents,
		rng:    rng,
	}
}

// Select returns a new profile. The device class is chosen with p=0.5 each,
// then a user agent uniformly from that class's list.
func (s *Selector) Select() ClientProfile {
	if s.rng.Intn(2) == 1 {
		return ClientProfile{
			DeviceClass: Mobile,
			UserAgent:   pick(s.rng, s.agents.Mobile),
			Viewport:    MobileViewport,
			ScaleFactor: MobileScaleFactor,
		}
	}

	return ClientProfile{
		DeviceClass: Desktop,
		UserAgent:   pick(s.rng, s.agents.Desktop),
		Viewport:    DesktopViewport,
		ScaleFactor: DesktopScaleFactor,
	}
}

func pick(rng *rand.Rand, list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[rng.Intn(len(list))]
}
