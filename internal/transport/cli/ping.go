package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-site/internal/ping"
)

func (r *runner) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Show the backend ping result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := ping.NewClient(r.tools.API)
			state := client.Refresh(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), state.Result)
			if strings.HasPrefix(state.Result, "Error: ") {
				return fmt.Errorf("ping failed")
			}
			return nil
		},
	}
}
