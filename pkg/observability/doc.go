/*
Package observability turns engine lifecycle hooks into Prometheus metrics
and sets up OpenTelemetry tracing.

Metrics are registered on a caller-supplied registry and fed by the
domain.LifecycleHooks returned from Metrics.Hooks. Tracing is opt-in: without
an OTLP endpoint SetupTracing installs nothing and the engine's spans go to
the no-op global provider.
*/
package observability
