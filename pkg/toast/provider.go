package toast

import (
	"sync"

	"github.com/vango-dev/toastkit/pkg/loop"
)

// Provider is the scope owning one channel: its Manager, its Stage and,
// unless the Config supplied a Dispatcher, the event loop they run on.
// It lives until Close.
type Provider struct {
	registry *Registry
	cfg      *Config

	manager *Manager
	stage   *Stage
	handle  *Handle

	// owned is the loop started for this provider, nil when the caller
	// supplied a Dispatcher.
	owned *loop.Loop

	closeOnce sync.Once
}

func newProvider(r *Registry, cfg *Config) *Provider {
	cfg = cfg.withDefaults()

	p := &Provider{registry: r}
	if cfg.Dispatcher == nil {
		p.owned = loop.New(loop.WithLogger(cfg.Logger.With("channel", cfg.Channel)))
		p.owned.Start()
		cfg.Dispatcher = p.owned
	}
	p.cfg = cfg

	p.manager = NewManager(cfg)
	p.stage = NewStage(p.manager, cfg)
	p.handle = &Handle{manager: p.manager}

	cfg.Logger.Debug("toast provider open",
		"channel", cfg.Channel,
		"placement", string(cfg.Placement),
		"auto_dismiss", cfg.AutoDismiss,
		"newest_on_top", cfg.NewestOnTop)
	return p
}

// Channel returns the channel name.
func (p *Provider) Channel() string {
	return p.cfg.Channel
}

// Config returns a copy of the effective configuration.
func (p *Provider) Config() *Config {
	return p.cfg.Clone()
}

// Handle returns the channel's Handle. Every Handle of a channel shares
// the same Manager.
func (p *Provider) Handle() *Handle {
	return p.handle
}

// Manager returns the stack manager.
func (p *Provider) Manager() *Manager {
	return p.manager
}

// Stage returns the visible toasts for the presentation layer.
func (p *Provider) Stage() *Stage {
	return p.stage
}

// Close tears the channel down: controllers are unmounted and their
// timers released, the stack is discarded without running OnDismiss, and
// the channel name becomes available to Provide again. Handles obtained
// earlier become inert. Close is idempotent.
func (p *Provider) Close() {
	p.closeOnce.Do(func() {
		p.registry.unregister(p)
		p.stage.Close()
		p.manager.Close()
		if p.owned != nil {
			p.owned.Close()
		}
		p.cfg.Logger.Debug("toast provider closed", "channel", p.cfg.Channel)
	})
}
