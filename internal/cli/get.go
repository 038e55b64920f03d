package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
)

// GetResult is the JSON payload of get. Record is the not-found sentinel
// when Found is false.
type GetResult struct {
	Found  bool           `json:"found"`
	Record map[string]any `json:"record"`
}

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Look up a remittance",
		Long: `Print the remittance stored under id.

An absent id prints the not-found record (id 0, status NOTFOUND) and
exits with code 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, cmd, args)
		},
	}
}

func runGet(opts *RootOptions, cmd *cobra.Command, args []string) error {
	f := newFormatter(opts, cmd)

	id, err := parseID(args[0])
	if err != nil {
		return f.Fail(ErrCodeBadArgument, err)
	}

	s, err := openSession(opts, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, found, err := s.contract.Get(s.ctx, id)
	if err != nil {
		return f.Fail(ErrCodeBackend, err)
	}

	if f.Format == "json" {
		if err := f.Success(GetResult{Found: found, Record: rec.Fields()}); err != nil {
			return err
		}
	} else {
		writeRecord(f.Writer, rec)
	}

	if !found {
		return NewExitError(ExitFailure, fmt.Sprintf("remittance %d not found", id))
	}
	return nil
}

// writeRecord prints rec as aligned "key: value" lines.
func writeRecord(w io.Writer, rec remit.Record) {
	fmt.Fprintf(w, "id:        %d\n", rec.ID)
	fmt.Fprintf(w, "sender:    %s\n", rec.Sender)
	fmt.Fprintf(w, "recipient: %s\n", rec.Recipient)
	fmt.Fprintf(w, "amount:    %s\n", rec.Amount.String())
	fmt.Fprintf(w, "currency:  %s\n", rec.Currency)
	fmt.Fprintf(w, "timestamp: %d\n", rec.Timestamp)
	fmt.Fprintf(w, "status:    %s\n", rec.Status)
}
