// Package instrumentation exposes the server's Prometheus metrics.
//
// A Metrics value owns its own registry, so several servers (or tests) can live in one process.
// It implements auth.Recorder for the engine and records HTTP request counts and durations for
// the transport:
//
//	metrics := instrumentation.New(instrumentation.Config{ServiceName: "oauth20"})
//	engine, _ := auth.NewAuthorizationServer(store, cfg, auth.WithMetrics(metrics))
//	mux.Handle("GET /metrics", metrics.Handler())
package instrumentation
