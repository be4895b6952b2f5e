package toast

import (
	"maps"
	"time"
)

// Callback receives the ID of the toast an operation applied to.
type Callback func(id ID)

// Appearance is a descriptive tag for the presentation layer. The core
// passes it through without interpreting it, so custom values are allowed.
type Appearance string

const (
	AppearanceSuccess Appearance = "success"
	AppearanceError   Appearance = "error"
	AppearanceWarning Appearance = "warning"
	AppearanceInfo    Appearance = "info"
)

// Known reports whether a is one of the built-in appearances.
func (a Appearance) Known() bool {
	switch a {
	case AppearanceSuccess, AppearanceError, AppearanceWarning, AppearanceInfo:
		return true
	default:
		return false
	}
}

type dismissMode uint8

const (
	dismissInherit dismissMode = iota
	dismissOff
	dismissOn
	dismissAfter
)

// AutoDismiss describes whether and when a toast removes itself.
// The zero value inherits the provider's default.
type AutoDismiss struct {
	mode  dismissMode
	after time.Duration
}

// AutoDismissOff disables auto-dismiss.
func AutoDismissOff() AutoDismiss {
	return AutoDismiss{mode: dismissOff}
}

// AutoDismissOn enables auto-dismiss with the provider's default timeout.
func AutoDismissOn() AutoDismiss {
	return AutoDismiss{mode: dismissOn}
}

// AutoDismissAfter enables auto-dismiss after d of visible time.
// A non-positive d disables auto-dismiss.
func AutoDismissAfter(d time.Duration) AutoDismiss {
	if d <= 0 {
		return AutoDismissOff()
	}
	return AutoDismiss{mode: dismissAfter, after: d}
}

// IsSet reports whether a overrides the provider default.
func (a AutoDismiss) IsSet() bool {
	return a.mode != dismissInherit
}

// Enabled reports whether the toast dismisses itself.
func (a AutoDismiss) Enabled() bool {
	return a.mode == dismissOn || a.mode == dismissAfter
}

// Timeout returns the countdown duration, using def unless a carries an
// explicit override. It returns 0 when auto-dismiss is disabled.
func (a AutoDismiss) Timeout(def time.Duration) time.Duration {
	switch a.mode {
	case dismissAfter:
		return a.after
	case dismissOn:
		return def
	default:
		return 0
	}
}

// String returns "inherit", "off", "on" or the override duration.
func (a AutoDismiss) String() string {
	switch a.mode {
	case dismissOff:
		return "off"
	case dismissOn:
		return "on"
	case dismissAfter:
		return a.after.String()
	default:
		return "inherit"
	}
}

// resolve replaces inherit with the provider default.
func (a AutoDismiss) resolve(def bool) AutoDismiss {
	if a.IsSet() {
		return a
	}
	if def {
		return AutoDismissOn()
	}
	return AutoDismissOff()
}

// Record is one toast in a stack.
type Record struct {
	// ID is stable for the toast's lifetime.
	ID ID

	// Content is the renderable payload. It is never inspected.
	Content any

	// Appearance is passed through to the presentation layer.
	Appearance Appearance

	// AutoDismiss is always resolved (never inherit) once the toast is in
	// a stack.
	AutoDismiss AutoDismiss

	// OnDismiss runs exactly once when the toast is removed, before the
	// removal completes.
	OnDismiss Callback

	// Extra carries caller-defined fields the core does not know about.
	Extra map[string]any
}

// Field returns a caller-defined field.
func (r Record) Field(key string) (any, bool) {
	v, ok := r.Extra[key]
	return v, ok
}

// clone copies r so that snapshot holders cannot reach internal state.
func (r Record) clone() Record {
	if r.Extra != nil {
		r.Extra = maps.Clone(r.Extra)
	}
	return r
}
