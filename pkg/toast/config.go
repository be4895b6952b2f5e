package toast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/loop"
)

const (
	// DefaultChannel is the channel used when no name is given.
	DefaultChannel = "default"

	// DefaultAutoDismissTimeout is the visible time before a toast with
	// auto-dismiss enabled removes itself.
	DefaultAutoDismissTimeout = 5 * time.Second

	// DefaultTransitionDuration is the length of the enter and exit
	// transitions.
	DefaultTransitionDuration = 220 * time.Millisecond
)

// Placement is the screen region toasts are rendered in.
type Placement string

const (
	PlacementTopLeft      Placement = "top-left"
	PlacementTopCenter    Placement = "top-center"
	PlacementTopRight     Placement = "top-right"
	PlacementBottomLeft   Placement = "bottom-left"
	PlacementBottomCenter Placement = "bottom-center"
	PlacementBottomRight  Placement = "bottom-right"
)

// Placements lists every valid placement.
var Placements = []Placement{
	PlacementTopLeft,
	PlacementTopCenter,
	PlacementTopRight,
	PlacementBottomLeft,
	PlacementBottomCenter,
	PlacementBottomRight,
}

// Valid reports whether p is one of the six placements.
func (p Placement) Valid() bool {
	for _, v := range Placements {
		if p == v {
			return true
		}
	}
	return false
}

// ParsePlacement converts a placement name such as "bottom-left".
func ParsePlacement(s string) (Placement, error) {
	p := Placement(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown placement %q", ErrInvalidConfig, s)
	}
	return p, nil
}

// Config holds the construction-time configuration of a Provider.
type Config struct {
	// AutoDismiss is the default for toasts that do not set it.
	// Default: false.
	AutoDismiss bool

	// AutoDismissTimeout is the default countdown for auto-dismissing
	// toasts. Zero means DefaultAutoDismissTimeout.
	AutoDismissTimeout time.Duration

	// Placement is where the presentation layer renders the stack.
	// Default: top-right.
	Placement Placement

	// TransitionDuration is the length of the enter and exit transitions.
	// Zero makes transitions complete on the next loop turn.
	// Default (DefaultConfig): 220ms.
	TransitionDuration time.Duration

	// NewestOnTop inserts new toasts at the front of the stack instead of
	// the back. Default: false.
	NewestOnTop bool

	// PauseOnHover pauses the countdown while the pointer is over a toast.
	// Default (DefaultConfig): true.
	PauseOnHover bool

	// Channel names the stack. Default: "default".
	Channel string

	// Clock is the time source for all timers. Default: clock.Real().
	Clock clock.Clock

	// Dispatcher is the event loop callbacks run on. When nil the
	// Provider starts its own loop.Loop and stops it on Close.
	Dispatcher loop.Dispatcher

	// IDs generates toast IDs. Default: UUIDs().
	IDs IDGenerator

	// Logger receives diagnostics. Default: slog.Default().
	Logger *slog.Logger

	// Observer is notified of stack and lifecycle events.
	Observer Observer
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		AutoDismiss:        false,
		AutoDismissTimeout: DefaultAutoDismissTimeout,
		Placement:          PlacementTopRight,
		TransitionDuration: DefaultTransitionDuration,
		NewestOnTop:        false,
		PauseOnHover:       true,
		Channel:            DefaultChannel,
	}
}

// Clone returns a shallow copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	if c.AutoDismissTimeout < 0 {
		return fmt.Errorf("%w: negative auto-dismiss timeout %v", ErrInvalidConfig, c.AutoDismissTimeout)
	}
	if c.TransitionDuration < 0 {
		return fmt.Errorf("%w: negative transition duration %v", ErrInvalidConfig, c.TransitionDuration)
	}
	if c.Placement != "" && !c.Placement.Valid() {
		return fmt.Errorf("%w: unknown placement %q", ErrInvalidConfig, c.Placement)
	}
	return nil
}

// withDefaults returns a copy with every unset field filled in.
// Dispatcher is left alone; the Provider decides who owns the loop.
func (c *Config) withDefaults() *Config {
	if c == nil {
		c = DefaultConfig()
	}
	out := c.Clone()
	if out.AutoDismissTimeout == 0 {
		out.AutoDismissTimeout = DefaultAutoDismissTimeout
	}
	if out.Placement == "" {
		out.Placement = PlacementTopRight
	}
	if out.Channel == "" {
		out.Channel = DefaultChannel
	}
	if out.Clock == nil {
		out.Clock = clock.Real()
	}
	if out.IDs == nil {
		out.IDs = UUIDs()
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Observer == nil {
		out.Observer = NopObserver{}
	}
	return out
}
