package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/config"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/host"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	TTL time.Duration
}

// TokenResult is the JSON payload of token.
type TokenResult struct {
	Identity  string `json:"identity"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token <identity>",
		Short: "Issue a bearer token for an identity",
		Long: `Issue an HS256 token that authorizes its bearer to act as identity.

Requires auth.mode "token" and auth.secret (or REMIT_AUTH_SECRET).

Example:
  remit token alice --ttl 30m
  remit --token "$(remit token alice)" send alice bob 100 USD`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(opts, cmd, args[0])
		},
	}

	cmd.Flags().DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")

	return cmd
}

func runToken(opts *TokenOptions, cmd *cobra.Command, identity string) error {
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Config.Auth.Mode != config.AuthToken {
		return f.Fail(ErrCodeAuth, errors.New(`tokens require auth.mode "token"`))
	}

	now := time.Now()
	tok, err := host.IssueToken([]byte(opts.Config.Auth.Secret), remit.Address(identity), opts.TTL, now)
	if err != nil {
		return f.Fail(ErrCodeAuth, err)
	}

	if f.Format == "json" {
		return f.Success(TokenResult{
			Identity:  identity,
			Token:     tok,
			ExpiresAt: now.Add(opts.TTL).Unix(),
		})
	}
	return f.Success(tok)
}
