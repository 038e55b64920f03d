package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/config"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/host"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remittance"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/store"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/store/redisstore"
)

// session is an open ledger plus the call context carrying the caller's
// credentials.
type session struct {
	ctx      context.Context
	contract *remittance.Contract
	backend  store.Backend
	cancel   context.CancelFunc
	logger   *slog.Logger
}

// Close releases the backend and stops signal handling.
func (s *session) Close() {
	s.cancel()
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend", "error", err)
	}
}

// openSession opens the configured backend and builds a contract over it.
// The returned context is cancelled on SIGINT/SIGTERM. Failures are
// reported through f.
func openSession(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*session, error) {
	logger := opts.logger()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)

	backend, err := openBackend(ctx, opts.Config, logger)
	if err != nil {
		cancel()
		return nil, f.Fail(ErrCodeBackend, err)
	}

	auth, ctx, err := authorize(ctx, opts)
	if err != nil {
		cancel()
		_ = backend.Close()
		return nil, f.Fail(ErrCodeAuth, err)
	}

	contract := remittance.New(backend, auth, host.SystemClock{},
		remittance.WithLogger(logger),
		remittance.WithRetention(opts.Config.StoreRetention()),
		remittance.WithStrictCurrency(opts.Config.StrictCurrency),
	)

	return &session{
		ctx:      ctx,
		contract: contract,
		backend:  backend,
		cancel:   cancel,
		logger:   logger,
	}, nil
}

// openBackend opens the storage backend named by cfg.Backend.
func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		logger.Debug("opening database", "path", cfg.SQLite.Path, "namespace", cfg.Namespace)
		st, err := store.Open(cfg.SQLite.Path, store.WithNamespace(cfg.Namespace))
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		n, err := st.Prune(ctx)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("prune sqlite %s: %w", cfg.SQLite.Path, err)
		}
		if n > 0 {
			logger.Debug("pruned expired namespaces", "count", n)
		}
		logger.Debug("database ready", "path", cfg.SQLite.Path, "namespace", st.Namespace())
		return st, nil

	case config.BackendRedis:
		logger.Debug("connecting to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB, "namespace", cfg.Namespace)
		st, err := redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisstore.WithNamespace(cfg.Namespace))
		if err != nil {
			return nil, fmt.Errorf("open redis %s: %w", cfg.Redis.Addr, err)
		}
		return st, nil

	case config.BackendMemory:
		logger.Debug("using in-memory backend; state is discarded on exit")
		return store.NewMemory(store.WithNamespace(cfg.Namespace)), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// authorize builds the authorizer for the configured auth mode and
// attaches the caller's credentials to ctx.
func authorize(ctx context.Context, opts *RootOptions) (host.Authorizer, context.Context, error) {
	switch opts.Config.Auth.Mode {
	case config.AuthToken:
		auth, err := host.NewTokenAuthorizer([]byte(opts.Config.Auth.Secret))
		if err != nil {
			return nil, ctx, err
		}
		return auth, host.WithToken(ctx, opts.Token), nil

	case config.AuthIdentity, "":
		ids := make([]remit.Address, len(opts.As))
		for i, id := range opts.As {
			ids[i] = remit.Address(id)
		}
		return host.IdentityAuthorizer{}, host.WithIdentities(ctx, ids...), nil

	default:
		return nil, ctx, fmt.Errorf("unknown auth mode %q", opts.Config.Auth.Mode)
	}
}

// logger returns the configured logger, or one that discards output when
// the root command's pre-run was skipped.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
