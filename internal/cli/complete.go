package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
)

// CompleteResult is the JSON payload of a successful complete.
type CompleteResult struct {
	ID     uint64 `json:"id"`
	Status string `json:"status"`
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id> <processor>",
		Short: "Mark a pending remittance complete",
		Long: `Mark a PENDING remittance COMPLETE on behalf of a processor.

Any authorized processor may complete any remittance, once.

Example:
  remit complete --as processor-1 1 processor-1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(opts, cmd, args)
		},
	}
}

func runComplete(opts *RootOptions, cmd *cobra.Command, args []string) error {
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

	if err := s.contract.Complete(s.ctx, id, remit.Address(args[1])); err != nil {
		return f.Fail(ErrCodeBackend, err)
	}

	if f.Format == "json" {
		return f.Success(CompleteResult{ID: id, Status: remit.StatusComplete.String()})
	}
	return f.Success(fmt.Sprintf("remittance %d completed", id))
}

// parseID parses a decimal remittance id.
func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be a non-negative integer", s)
	}
	return id, nil
}
