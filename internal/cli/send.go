package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remittance"
)

// SendResult is the JSON payload of a successful send.
type SendResult struct {
	ID uint64 `json:"id"`
}

// NewSendCommand creates the send command.
func NewSendCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <sender> <recipient> <amount> <currency>",
		Short: "Record a new pending remittance",
		Long: `Record a new PENDING remittance and print its id.

The caller must be authorized as the sender: pass --as <sender> in
identity mode, or --token with a token issued for the sender.

Example:
  remit send --as alice alice bob 100 USD`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(opts, cmd, args)
		},
	}
}

func runSend(opts *RootOptions, cmd *cobra.Command, args []string) error {
	f := newFormatter(opts, cmd)

	amount, err := remit.ParseAmount(args[2])
	if err != nil {
		// Reported like the ledger's own amount rejection.
		return f.Fail(ErrCodeBadArgument, &remittance.Error{
			Code:    remittance.ErrCodeInvalidAmount,
			Message: fmt.Sprintf("invalid amount %q", args[2]),
			Err:     err,
		})
	}

	s, err := openSession(opts, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.contract.Send(s.ctx,
		remit.Address(args[0]), remit.Address(args[1]),
		amount, remit.Currency(args[3]))
	if err != nil {
		return f.Fail(ErrCodeBackend, err)
	}

	if f.Format == "json" {
		return f.Success(SendResult{ID: id})
	}
	return f.Success(id)
}
