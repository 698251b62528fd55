// Package metrics provides Prometheus instrumentation for fitchain components.
//
// # Quick Start
//
// Pass a registry to the components that support it:
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//	chain := estimator.NewChain[estimator.Transformer](
//		estimator.WithName("features"),
//		estimator.WithMetrics(reg),
//	)
//
//	sem, err := semaphore.NewWithMetrics(4, "trainers", metrics.DefaultConfig())
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Available Metrics
//
//   - fitchain_fit_started_total{chain}
//   - fitchain_fit_completed_total{chain}
//   - fitchain_fit_failed_total{chain,reason}: reason is "schema", "canceled" or "error"
//   - fitchain_fit_duration_seconds{chain}
//   - fitchain_fit_stage_duration_seconds{chain,stage}
//   - fitchain_schema_checks_total{chain,result}
//   - fitchain_permits_active{semaphore}
//   - fitchain_permits_waiting{semaphore}
//   - fitchain_permits_wait_duration_seconds{semaphore}
//   - fitchain_refresh_refits_total{refresher,result}
//   - fitchain_refresh_refit_duration_seconds{refresher}
//
// A Registry registers its collectors on construction, so create one per
// Prometheus registerer. For returns the shared DefaultRegistry for the
// default registerer.
package metrics
