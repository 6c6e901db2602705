package cli

import (
	"github.com/spf13/cobra"
)

// NewMCPCommand serves the page tools over MCP on stdin/stdout.
func NewMCPCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the page tools to an MCP client over stdio",
		Long: `Serve the page tools to an MCP client over stdio.

Logs go to stderr (or the configured log file) so they never mix with the
protocol stream on stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ServeMCP(cmd.Context())
		},
	}
}
