package remittance

import (
	"log/slog"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/host"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/store"
)

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the diagnostic sink. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Contract) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetention sets the (threshold, extendTo) pair applied after every
// write. Default: store.DefaultRetention.
func WithRetention(r store.Retention) Option {
	return func(c *Contract) {
		c.retention = r
	}
}

// WithStrictCurrency requires currencies to be ISO 4217 codes instead of
// any short symbolic token.
func WithStrictCurrency(strict bool) Option {
	return func(c *Contract) {
		c.strictCurrency = strict
	}
}

// WithCallIDs sets the generator for the call_id attribute on log lines.
// Default: host.UUIDv7Generator.
func WithCallIDs(g host.CallIDGenerator) Option {
	return func(c *Contract) {
		if g != nil {
			c.callIDs = g
		}
	}
}
