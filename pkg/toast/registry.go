package toast

import (
	"slices"
	"sync"
)

// Registry maps channel names to their Providers.
//
// Most programs use the package-level Provide and Use, which share
// DefaultRegistry. Tests and programs that host several independent
// applications create their own with NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
}

// DefaultRegistry backs the package-level Provide, Use and MustUse.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

// Provide constructs a Provider for cfg.Channel and registers it. It fails
// with ErrChannelExists while another Provider for the same channel is
// open, and with ErrInvalidConfig for unusable settings.
func (r *Registry) Provide(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ChannelError{Channel: channel, Op: "provide", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[channel]; ok {
		return nil, &ChannelError{Channel: channel, Op: "provide", Err: ErrChannelExists}
	}
	p := newProvider(r, cfg)
	r.providers[channel] = p
	return p, nil
}

// Use returns a Handle for the named channel. An empty name means the
// default channel. The error wraps ErrNoProvider when no Provider is open
// for that channel.
func (r *Registry) Use(channel string) (*Handle, error) {
	if channel == "" {
		channel = DefaultChannel
	}

	r.mu.RLock()
	p, ok := r.providers[channel]
	r.mu.RUnlock()

	if !ok {
		return nil, &ChannelError{Channel: channel, Op: "use", Err: ErrNoProvider}
	}
	return p.Handle(), nil
}

// MustUse is like Use but panics when no Provider is open for the channel.
func (r *Registry) MustUse(channel string) *Handle {
	h, err := r.Use(channel)
	if err != nil {
		panic(err)
	}
	return h
}

// Lookup returns the open Provider for a channel.
func (r *Registry) Lookup(channel string) (*Provider, bool) {
	if channel == "" {
		channel = DefaultChannel
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[channel]
	return p, ok
}

// Channels returns the names of every open channel, sorted.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// CloseAll closes every open Provider.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	providers := make([]*Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	r.mu.RUnlock()

	for _, p := range providers {
		p.Close()
	}
}

// unregister drops p if it is still the Provider for its channel.
func (r *Registry) unregister(p *Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.providers[p.Channel()] == p {
		delete(r.providers, p.Channel())
	}
}

// Provide constructs a Provider on DefaultRegistry.
func Provide(cfg *Config) (*Provider, error) {
	return DefaultRegistry.Provide(cfg)
}

// Use returns a Handle from DefaultRegistry.
func Use(channel string) (*Handle, error) {
	return DefaultRegistry.Use(channel)
}

// MustUse returns a Handle from DefaultRegistry and panics when the
// channel has no Provider.
func MustUse(channel string) *Handle {
	return DefaultRegistry.MustUse(channel)
}
