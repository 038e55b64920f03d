// Package config loads remit settings in layers: built-in defaults, an
// optional CUE or JSON file checked against an embedded CUE schema, then
// REMIT_* environment variables. Command-line flags are applied on top by
// the CLI, which calls Validate last.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "REMIT_"

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Auth modes.
const (
	AuthIdentity = "identity"
	AuthToken    = "token"
)

// Config is the full remit configuration.
type Config struct {
	Backend        string          `json:"backend" env:"BACKEND"`
	SQLite         SQLiteConfig    `json:"sqlite" envPrefix:"SQLITE_"`
	Redis          RedisConfig     `json:"redis" envPrefix:"REDIS_"`
	Namespace      string          `json:"namespace" env:"NAMESPACE"`
	Retention      RetentionConfig `json:"retention" envPrefix:"RETENTION_"`
	Auth           AuthConfig      `json:"auth" envPrefix:"AUTH_"`
	StrictCurrency bool            `json:"strict_currency" env:"STRICT_CURRENCY"`
	Log            LogConfig       `json:"log" envPrefix:"LOG_"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `json:"path" env:"PATH"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string `json:"addr" env:"ADDR"`
	DB       int    `json:"db" env:"DB"`
	Password string `json:"password" env:"PASSWORD"`
}

// RetentionConfig is the (threshold, extend_to) pair in seconds.
type RetentionConfig struct {
	Threshold uint32 `json:"threshold" env:"THRESHOLD"`
	ExtendTo  uint32 `json:"extend_to" env:"EXTEND_TO"`
}

// AuthConfig selects how callers prove identities.
type AuthConfig struct {
	Mode   string `json:"mode" env:"MODE"`
	Secret string `json:"secret" env:"SECRET"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level  string `json:"level" env:"LEVEL"`
	Format string `json:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:   BackendSQLite,
		SQLite:    SQLiteConfig{Path: "remit.db"},
		Redis:     RedisConfig{Addr: "localhost:6379"},
		Namespace: store.DefaultNamespace,
		Retention: RetentionConfig{
			Threshold: store.DefaultRetention.Threshold,
			ExtendTo:  store.DefaultRetention.ExtendTo,
		},
		Auth: AuthConfig{Mode: AuthIdentity},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// StoreRetention converts the configured retention for the store package.
func (c Config) StoreRetention() store.Retention {
	return store.Retention{Threshold: c.Retention.Threshold, ExtendTo: c.Retention.ExtendTo}
}

// Load builds a Config from defaults, the file at path (skipped when path
// is empty) and the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := ApplyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyFile overlays the CUE or JSON file at path onto cfg. Fields absent
// from the file are left untouched.
func ApplyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}

	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return formatCUEError(err)
	}

	v := schema.Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}

	raw, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays REMIT_* environment variables onto cfg. Unset
// variables leave their fields untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config from environment: %w", err)
	}
	return nil
}

// LoadDotEnv loads .env-style files into the process environment without
// overriding variables already set. Missing files are skipped. With no
// arguments it loads ".env".
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks cfg against the schema and the cross-field rules the
// schema cannot express.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}

	if c.Auth.Mode == AuthToken && c.Auth.Secret == "" {
		return &Error{Field: "auth.secret", Message: "required when auth.mode is \"token\""}
	}
	return nil
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Config")), nil
}

// Error is an invalid configuration value.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// formatCUEError extracts the first error and its position from a CUE
// error list.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	format, args := first.Msg()
	field := "config"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	e := &Error{Field: field, Message: fmt.Sprintf(format, args...)}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
