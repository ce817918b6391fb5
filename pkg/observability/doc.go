/*
Package observability provides tools for monitoring the arbor engine.

It turns the engine's lifecycle hooks into Prometheus metrics and structured
log records. Both are plain domain.LifecycleHooks values and can be merged and
passed to bt.WithLifecycleHooks.
*/
package observability
