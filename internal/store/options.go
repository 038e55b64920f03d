package store

import "github.com/ganiluffy/Cross-Border-Remittance-App/internal/host"

// DefaultNamespace is the namespace used when none is configured.
const DefaultNamespace = "remittance"

type options struct {
	namespace string
	clock     host.Clock
}

func defaultOptions() options {
	return options{
		namespace: DefaultNamespace,
		clock:     host.SystemClock{},
	}
}

// Option configures a backend created by Open or NewMemory.
type Option func(*options)

// WithNamespace scopes the backend to a namespace.
func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

// WithClock sets the clock retention is measured against.
// Default: host.SystemClock.
func WithClock(c host.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}
