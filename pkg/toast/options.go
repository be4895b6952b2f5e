package toast

import "time"

// Option configures a toast for Add or Update.
type Option func(*draft)

// draft collects options before they are applied to a stack.
type draft struct {
	rec   Record
	id    ID
	hasID bool
}

// WithID supplies the toast's ID instead of generating one. Adding an ID
// that is already live is a no-op. Update ignores this option.
func WithID(id ID) Option {
	return func(d *draft) {
		if id != "" {
			d.id = id
			d.hasID = true
		}
	}
}

// WithContent replaces the toast's content.
func WithContent(content any) Option {
	return func(d *draft) {
		d.rec.Content = content
	}
}

// WithAppearance sets the appearance tag.
func WithAppearance(a Appearance) Option {
	return func(d *draft) {
		d.rec.Appearance = a
	}
}

// WithAutoDismiss enables or disables auto-dismiss with the provider's
// default timeout.
func WithAutoDismiss(enabled bool) Option {
	return func(d *draft) {
		if enabled {
			d.rec.AutoDismiss = AutoDismissOn()
		} else {
			d.rec.AutoDismiss = AutoDismissOff()
		}
	}
}

// WithAutoDismissAfter enables auto-dismiss after d of visible time.
func WithAutoDismissAfter(after time.Duration) Option {
	return func(d *draft) {
		d.rec.AutoDismiss = AutoDismissAfter(after)
	}
}

// WithDismissMode sets the AutoDismiss value directly.
func WithDismissMode(a AutoDismiss) Option {
	return func(d *draft) {
		d.rec.AutoDismiss = a
	}
}

// WithOnDismiss registers a callback that runs exactly once when the
// toast is removed.
func WithOnDismiss(fn Callback) Option {
	return func(d *draft) {
		d.rec.OnDismiss = fn
	}
}

// WithField sets one caller-defined field.
func WithField(key string, value any) Option {
	return func(d *draft) {
		if d.rec.Extra == nil {
			d.rec.Extra = make(map[string]any)
		}
		d.rec.Extra[key] = value
	}
}

// WithFields merges caller-defined fields.
func WithFields(fields map[string]any) Option {
	return func(d *draft) {
		if len(fields) == 0 {
			return
		}
		if d.rec.Extra == nil {
			d.rec.Extra = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			d.rec.Extra[k] = v
		}
	}
}

func applyOptions(rec Record, opts []Option) draft {
	d := draft{rec: rec}
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	return d
}
