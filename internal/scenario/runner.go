package scenario

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/toastkit/internal/errors"
	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/loop"
	"github.com/vango-dev/toastkit/pkg/toast"
	"github.com/vango-dev/toastkit/pkg/toasttest"
)

// DefaultIdleLimit bounds how long a run waits for the stack to settle
// after the last step when no end time is given.
const DefaultIdleLimit = time.Hour

// pollInterval is how often a realtime run checks whether it is idle.
const pollInterval = 25 * time.Millisecond

// Options configures a run.
type Options struct {
	// Config is the provider configuration. The scenario's channel and
	// inline config are applied on top. Clock and Dispatcher are replaced.
	Config *toast.Config

	// Until stops the run at this time since start. Steps after it are
	// skipped. Zero runs until nothing is pending, up to IdleLimit.
	Until time.Duration

	// IdleLimit bounds the wait after the last step. Default
	// DefaultIdleLimit.
	IdleLimit time.Duration

	// Out receives the timeline as it happens. Nil prints nothing.
	Out io.Writer

	// Observe, when set, is called with the run's clock before the first
	// step. The returned observer receives every event in addition to the
	// timeline.
	Observe func(clk clock.Clock) toast.Observer

	Logger *slog.Logger
}

// Result summarizes a finished run.
type Result struct {
	Events []Event

	// Elapsed is the run time, virtual or real.
	Elapsed time.Duration

	// Remaining lists the toasts still on the stack at the end.
	Remaining []toast.ID

	// Skipped counts steps after Until.
	Skipped int

	// Idle is false when the run stopped with work still pending.
	Idle bool
}

// RunVirtual replays sc on a virtual clock. The run is deterministic and
// takes no wall time.
func RunVirtual(sc *Scenario, opts Options) (*Result, error) {
	cfg, err := opts.providerConfig(sc)
	if err != nil {
		return nil, err
	}

	rec := NewRecorder(opts.Out)
	extra := &deferredObserver{Observer: toast.NopObserver{}}
	cfg.Observer = toast.Observers(rec, extra)

	h, err := toasttest.New(cfg)
	if err != nil {
		return nil, errors.New("T300").Wrap(err).WithDetail(err.Error())
	}
	defer h.Close()
	rec.Start(h.Clock)
	opts.attach(extra, h.Clock)

	res := &Result{}
	for _, st := range sc.Sorted() {
		if opts.Until > 0 && st.At.D() > opts.Until {
			res.Skipped++
			continue
		}
		h.AdvanceTo(toasttest.Epoch.Add(st.At.D()))
		rec.Step(st)
		apply(st, h.Toasts, h.Stage, cfg.Logger)
		h.Settle()
	}

	if opts.Until > 0 {
		h.AdvanceTo(toasttest.Epoch.Add(opts.Until))
		_, pending := h.Clock.Next()
		res.Idle = !pending
	} else {
		res.Idle = h.RunUntilIdle(opts.idleLimit())
	}

	rec.Stop()
	res.Events = rec.Events()
	res.Elapsed = h.Elapsed()
	res.Remaining = h.IDs()
	return res, nil
}

// RunRealtime plays sc against the wall clock on a loop.Loop. It returns
// early with ctx's error when ctx is cancelled.
func RunRealtime(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	cfg, err := opts.providerConfig(sc)
	if err != nil {
		return nil, err
	}

	rec := NewRecorder(opts.Out)
	extra := &deferredObserver{Observer: toast.NopObserver{}}
	cfg.Observer = toast.Observers(rec, extra)

	lp := loop.New(loop.WithLogger(cfg.Logger))
	cfg.Clock = clock.Real()
	cfg.Dispatcher = lp
	if cfg.IDs == nil {
		cfg.IDs = toast.Sequence("toast")
	}

	reg := toast.NewRegistry()
	p, err := reg.Provide(cfg)
	if err != nil {
		return nil, errors.New("T300").Wrap(err).WithDetail(err.Error())
	}
	handle, stage := p.Handle(), p.Stage()

	res := &Result{}
	start := time.Now()
	rec.Start(cfg.Clock)
	opts.attach(extra, cfg.Clock)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := lp.Run(gctx)
		if stderrors.Is(err, context.Canceled) && ctx.Err() == nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer lp.Close()

		for _, st := range sc.Sorted() {
			if opts.Until > 0 && st.At.D() > opts.Until {
				res.Skipped++
				continue
			}
			if err := sleepUntil(gctx, start.Add(st.At.D())); err != nil {
				return err
			}
			lp.Dispatch(func() {
				rec.Step(st)
				apply(st, handle, stage, cfg.Logger)
			})
		}

		// Wait for the last step to run on the loop.
		flushed := make(chan struct{})
		lp.Dispatch(func() { close(flushed) })
		select {
		case <-flushed:
		case <-gctx.Done():
			return gctx.Err()
		}

		if opts.Until > 0 {
			if err := sleepUntil(gctx, start.Add(opts.Until)); err != nil {
				return err
			}
			res.Idle = idle(handle, stage)
			return nil
		}

		deadline := start.Add(sc.End() + opts.idleLimit())
		for !idle(handle, stage) {
			if time.Now().After(deadline) {
				return nil
			}
			if err := sleepUntil(gctx, time.Now().Add(pollInterval)); err != nil {
				return err
			}
		}
		res.Idle = true
		return nil
	})

	err = g.Wait()
	res.Remaining = ids(handle.Toasts())
	rec.Stop()
	p.Close()
	res.Events = rec.Events()
	res.Elapsed = time.Since(start)

	if err != nil {
		return res, errors.New("T300").Wrap(err).WithDetail(err.Error())
	}
	return res, nil
}

func (o Options) providerConfig(sc *Scenario) (*toast.Config, error) {
	cfg := o.Config
	if cfg == nil {
		cfg = toast.DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}
	if sc.Config != nil {
		if err := sc.Config.Apply(cfg); err != nil {
			return nil, err
		}
	}
	if sc.Channel != "" {
		cfg.Channel = sc.Channel
	}
	if o.Logger != nil {
		cfg.Logger = o.Logger
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New("T103").Wrap(err).WithDetail(err.Error())
	}
	return cfg, nil
}

func (o Options) attach(d *deferredObserver, clk clock.Clock) {
	if o.Observe == nil {
		return
	}
	if obs := o.Observe(clk); obs != nil {
		d.Observer = obs
	}
}

// deferredObserver forwards to an observer chosen once the run's clock
// exists. It is set before any event is delivered.
type deferredObserver struct {
	toast.Observer
}

func (o Options) idleLimit() time.Duration {
	if o.IdleLimit > 0 {
		return o.IdleLimit
	}
	return DefaultIdleLimit
}

// apply performs one step against a channel.
func apply(st Step, h *toast.Handle, stage *toast.Stage, logger *slog.Logger) {
	switch st.Action() {
	case ActionAdd:
		opts := st.Add.Options()
		if st.Add.ID != "" {
			opts = append(opts, toast.WithID(toast.ID(st.Add.ID)))
		}
		if id := h.Add(st.Add.Content, nil, opts...); id == "" {
			logger.Warn("scenario add ignored", "id", st.Add.ID, "line", st.Line)
		}
	case ActionUpdate:
		opts := st.Update.Options()
		if st.Update.Content != "" {
			opts = append(opts, toast.WithContent(st.Update.Content))
		}
		h.Update(toast.ID(st.Update.ID), nil, opts...)
	case ActionRemove:
		h.Remove(toast.ID(st.Remove.ID), nil)
	case ActionDismiss:
		stage.Dismiss(toast.ID(st.Dismiss.ID))
	case ActionHover:
		stage.PointerEnter(toast.ID(st.Hover.ID))
	case ActionLeave:
		stage.PointerLeave(toast.ID(st.Leave.ID))
	case ActionRemoveAll:
		h.RemoveAll()
	}
}

// idle reports whether nothing will change without input: the stage
// shows exactly the stack, and every toast has entered and has no running
// countdown.
func idle(h *toast.Handle, stage *toast.Stage) bool {
	recs := h.Toasts()
	views := stage.Views()
	if len(recs) != len(views) {
		return false
	}
	for _, v := range views {
		if v.Phase != toast.PhaseEntered || v.Running || !h.Has(v.Record.ID) {
			return false
		}
	}
	return true
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}
	tm := time.NewTimer(d)
	defer tm.Stop()
	select {
	case <-tm.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func ids(recs []toast.Record) []toast.ID {
	out := make([]toast.ID, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
