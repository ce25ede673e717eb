// Package observability turns wizard lifecycle events into logs and Prometheus metrics.
//
// Both implementations produce domain.LifecycleHooks; Combine fans a single
// event out to several of them.
package observability
