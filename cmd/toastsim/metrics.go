package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/toastkit/internal/errors"
)

// metricsServer serves the run's metrics registry over HTTP.
type metricsServer struct {
	ln     net.Listener
	srv    *http.Server
	cancel context.CancelFunc
	group  *errgroup.Group
}

func metricsRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}

// startMetricsServer binds addr and serves in the background until Close.
func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.New("T301").Wrap(err).
			WithDetail(err.Error()).
			WithSuggestion("Pick a free address, e.g. --metrics-addr 127.0.0.1:0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	s := &metricsServer{
		ln:     ln,
		srv:    &http.Server{Handler: metricsRouter(reg), ReadHeaderTimeout: 5 * time.Second},
		cancel: cancel,
		group:  g,
	}

	g.Go(func() error {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		return s.srv.Shutdown(shutdownCtx)
	})

	return s, nil
}

// Addr returns the bound address.
func (s *metricsServer) Addr() string {
	return s.ln.Addr().String()
}

// Close stops the server and waits for it.
func (s *metricsServer) Close() error {
	s.cancel()
	return s.group.Wait()
}

// printMetrics writes every sample in reg in a compact text form.
func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.New("T300").Wrap(err).WithDetail("gathering metrics: " + err.Error())
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Sprint("Metrics"))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "  %s%s %s\n", mf.GetName(), labelString(m.GetLabel()), dim.Sprint(sampleValue(mf.GetType(), m)))
		}
	}
	return nil
}

func labelString(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func sampleValue(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%.3f", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}
