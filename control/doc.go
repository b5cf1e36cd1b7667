// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload, runtime metrics, configuration control, and debug introspection
// for kannel-corectl, the timer/conn demo binary.
//
// Provides concurrent-safe state handling primitives including:
//   - Typed YAML config with fsnotify-driven hot-reload
//   - Prometheus counters/gauges for the timer and connection subsystems
//   - State export, debug hooks, and probe registration
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
