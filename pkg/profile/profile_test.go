package profile

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_ViewportMatchesDeviceClass(t *testing.T) {
	selector := NewSelector(DefaultAgents(), rand.New(rand.NewSource(1)))

	for i := 0; i < 200; i++ {
		p := selector.Select()
		switch p.DeviceClass {
		case Desktop:
			assert.Equal(t, Viewport{Width: 1920, Height: 1080}, p.Viewport)
			assert.Equal(t, 1.0, p.ScaleFactor)
			assert.Contains(t, DefaultDesktopUserAgents, p.UserAgent)
			assert.False(t, p.IsMobile())
		case Mobile:
			assert.Equal(t, Viewport{Width: 390, Height: 844}, p.Viewport)
			assert.Equal(t, 2.0, p.ScaleFactor)
			assert.Contains(t, DefaultMobileUserAgents, p.UserAgent)
			assert.True(t, p.IsMobile())
		default:
			t.Fatalf("unexpected device class %q", p.DeviceClass)
		}
	}
}

func TestSelector_ReproducibleWithSeed(t *testing.T) {
	a := NewSelector(DefaultAgents(), rand.New(rand.NewSource(42)))
	b := NewSelector(DefaultAgents(), rand.New(rand.NewSource(42)))

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Select(), b.Select())
	}
}

func TestSelector_ProducesBothClasses(t *testing.T) {
	selector := NewSelector(DefaultAgents(), rand.New(rand.NewSource(7)))

	counts := map[DeviceClass]int{}
	for i := 0; i < 1000; i++ {
		counts[selector.Select().DeviceClass]++
	}

	// p=0.5 each; 1000 draws stay well inside 350..650
	assert.Greater(t, counts[Desktop], 350)
	assert.Greater(t, counts[Mobile], 350)
}

func TestSelector_SingleAgentLists(t *testing.T) {
	agents := Agents{Desktop: []string{"desk"}, Mobile: []string{"phone"}}
	selector := NewSelector(agents, rand.New(rand.NewSource(3)))

	for i := 0; i < 20; i++ {
		p := selector.Select()
		if p.IsMobile() {
			assert.Equal(t, "phone", p.UserAgent)
		} else {
			assert.Equal(t, "desk", p.UserAgent)
		}
	}
}

func TestAgents_Validate(t *testing.T) {
	tests := []struct {
		name    string
		agents  Agents
		wantErr string
	}{
		{name: "defaults", agents: DefaultAgents()},
		{name: "no desktop", agents: Agents{Mobile: []string{"m"}}, wantErr: "desktop"},
		{name: "no mobile", agents: Agents{Desktop: []string{"d"}}, wantErr: "mobile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.agents.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultAgents_ReturnsCopy(t *testing.T) {
	agents := DefaultAgents()
	agents.Desktop[0] = "changed"
	assert.NotEqual(t, "changed", DefaultDesktopUserAgents[0])
}

func TestClientProfile_String(t *testing.T) {
	p := ClientProfile{DeviceClass: Mobile, Viewport: MobileViewport, ScaleFactor: MobileScaleFactor}
	assert.Equal(t, "mobile 390x844@2.0x", p.String())
}
