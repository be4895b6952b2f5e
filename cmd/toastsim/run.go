package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/toastkit/internal/config"
	"github.com/vango-dev/toastkit/internal/errors"
	"github.com/vango-dev/toastkit/internal/scenario"
	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/telemetry"
	"github.com/vango-dev/toastkit/pkg/toast"
)

type runOptions struct {
	configPath  string
	realtime    bool
	until       time.Duration
	metrics     bool
	metricsAddr string
	logLevel    string
}

func runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Replay a scenario and print its timeline",
		Long: `Replay a scenario and print its timeline.

Without --config, toastsim looks for toastkit.json, toastkit.toml or
toastkit.yaml next to the scenario and in its parent directories.

Examples:
  toastsim run demo.yaml
  toastsim run demo.yaml --until 10s
  toastsim run demo.yaml --realtime --metrics-addr :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScenario(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file (json, toml or yaml)")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Run on the wall clock instead of virtual time")
	cmd.Flags().DurationVar(&opts.until, "until", 0, "Stop at this time since start (default: when idle)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print Prometheus metrics after the run")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	return cmd
}

func runScenario(ctx context.Context, out io.Writer, path string, opts runOptions) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	fileCfg, err := loadConfig(path, opts.configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		fileCfg.LogLevel = opts.logLevel
	}
	level, err := fileCfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	toastCfg, err := fileCfg.ToastConfig()
	if err != nil {
		return err
	}

	tp, err := telemetry.OTLPProviderFromEnv(ctx, "toastsim")
	if err != nil {
		return errors.New("T300").Wrap(err).WithDetail("OTLP exporter: " + err.Error())
	}
	var tracer *telemetry.Tracer
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("trace exporter shutdown", "error", err)
			}
		}()
		tracer = telemetry.Tracing(telemetry.WithTracerProvider(tp))
		logger.Debug("exporting traces over OTLP")
	}

	reg := prometheus.NewRegistry()
	var srv *metricsServer
	if opts.metricsAddr != "" {
		srv, err = startMetricsServer(opts.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer srv.Close()
		info("metrics on http://%s/metrics", srv.Addr())
	}

	runOpts := scenario.Options{
		Config: toastCfg,
		Until:  opts.until,
		Out:    out,
		Logger: logger,
		Observe: func(clk clock.Clock) toast.Observer {
			var obs []toast.Observer
			if opts.metrics || srv != nil {
				obs = append(obs, telemetry.Prometheus(
					telemetry.WithRegistry(reg),
					telemetry.WithClock(clk),
				))
			}
			if tracer != nil {
				obs = append(obs, tracer)
			}
			return toast.Observers(obs...)
		},
	}

	header(out, sc, opts.realtime)

	var res *scenario.Result
	if opts.realtime {
		res, err = scenario.RunRealtime(ctx, sc, runOpts)
	} else {
		res, err = scenario.RunVirtual(sc, runOpts)
	}
	if tracer != nil {
		tracer.Flush()
	}
	if err != nil {
		return err
	}

	summary(out, res)

	if opts.metrics {
		if err := printMetrics(out, reg); err != nil {
			return err
		}
	}

	if srv != nil {
		info("run finished, still serving metrics; press Ctrl-C to stop")
		<-ctx.Done()
	}
	return nil
}

// loadConfig reads the explicit config file, or the nearest toastkit
// config around the scenario when none is given.
func loadConfig(scenarioPath, explicit string) (*config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}
	found, err := config.Find(filepath.Dir(scenarioPath))
	if err != nil {
		return &config.Config{}, nil
	}
	return config.Load(found)
}

func header(w io.Writer, sc *scenario.Scenario, realtime bool) {
	name := sc.Name
	if name == "" {
		name = filepath.Base(sc.Path())
	}
	mode := "virtual time"
	if realtime {
		mode = "real time"
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", heading.Sprint(name), dim.Sprintf("(%d steps, %s)", len(sc.Steps), mode))
	fmt.Fprintln(w)
}

func summary(w io.Writer, res *scenario.Result) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d events in %s\n", okMark, len(res.Events), res.Elapsed.Round(time.Millisecond))
	if res.Skipped > 0 {
		fmt.Fprintf(w, "%s %d steps after --until were skipped\n", warnMark, res.Skipped)
	}
	if !res.Idle {
		fmt.Fprintf(w, "%s stopped with timers still pending\n", warnMark)
	}
	if len(res.Remaining) > 0 {
		fmt.Fprintf(w, "  still on the stack: %v\n", res.Remaining)
	}
}
