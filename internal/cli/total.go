package cli

import (
	"github.com/spf13/cobra"
)

// TotalResult is the JSON payload of total.
type TotalResult struct {
	Total uint64 `json:"total"`
}

// NewTotalCommand creates the total command.
func NewTotalCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "total",
		Short:         "Print the number of remittances created",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)

			s, err := openSession(opts, cmd, f)
			if err != nil {
				return err
			}
			defer s.Close()

			total, err := s.contract.Total(s.ctx)
			if err != nil {
				return f.Fail(ErrCodeBackend, err)
			}
			if f.Format == "json" {
				return f.Success(TotalResult{Total: total})
			}
			return f.Success(total)
		},
	}
}
