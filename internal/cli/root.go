package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Backend    string
	Database   string
	RedisAddr  string
	Namespace  string
	As         []string // identities the caller has authenticated as
	Token      string   // bearer token when auth.mode is "token"

	// Config is the resolved configuration, populated before any
	// subcommand runs.
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the remit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "remit",
		Short: "Cross-border remittance ledger",
		Long: `Record, complete and look up cross-border remittance transactions.

Settings are layered: built-in defaults, then --config (CUE or JSON),
then REMIT_* environment variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				err := fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				f := newFormatter(opts, cmd)
				f.Format = "text"
				_ = f.Error(ErrCodeBadArgument, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid output format", err)
			}
			if err := opts.resolve(cmd); err != nil {
				f := newFormatter(opts, cmd)
				_ = f.Error(ErrCodeConfig, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (CUE or JSON)")
	pf.StringVar(&opts.Backend, "backend", "", "storage backend (sqlite|redis|memory)")
	pf.StringVar(&opts.Database, "db", "", "path to SQLite database")
	pf.StringVar(&opts.RedisAddr, "redis-addr", "", "Redis address")
	pf.StringVar(&opts.Namespace, "namespace", "", "ledger namespace")
	pf.StringArrayVar(&opts.As, "as", nil, "identity the caller is authenticated as (repeatable)")
	pf.StringVar(&opts.Token, "token", "", "bearer token for token auth mode")

	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewCompleteCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewTotalCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the layered configuration, applies flags the user set
// explicitly, and installs the diagnostic logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = o.Backend
	}
	if flags.Changed("db") {
		cfg.SQLite.Path = o.Database
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr = o.RedisAddr
	}
	if flags.Changed("namespace") {
		cfg.Namespace = o.Namespace
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.Config = cfg
	o.Logger = newLogger(cmd.ErrOrStderr(), cfg.Log, o.Verbose)
	return nil
}

// newLogger builds the stderr logger. --verbose forces debug level.
func newLogger(w io.Writer, lc config.LogConfig, verbose bool) *slog.Logger {
	level := parseLevel(lc.Level)
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
