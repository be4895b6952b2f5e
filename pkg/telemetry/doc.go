// Package telemetry reports toast activity to Prometheus and OpenTelemetry.
//
// Both reporters implement toast.Observer and are attached through
// Config.Observer. Combine them with toast.Observers:
//
//	reg := prometheus.NewRegistry()
//	cfg := toast.DefaultConfig()
//	cfg.Observer = toast.Observers(
//	    telemetry.Prometheus(telemetry.WithRegistry(reg)),
//	    telemetry.Tracing(telemetry.WithTracerName("my-app")),
//	)
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Observer methods run on the provider's event loop and on timer
// goroutines; both reporters are safe for concurrent use.
package telemetry
