package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewPageCommand groups the page subcommands.
func NewPageCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Show or rename pages",
	}
	cmd.AddCommand(newPageHomeCommand(opts))
	cmd.AddCommand(newPageTitleCommand(opts))
	return cmd
}

func newPageHomeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the home page and its blocks, creating it on first use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.Pages.GetHome(cmd.Context())
			if err != nil {
				return err
			}
			text := fmt.Sprintf("# %s (page %d)\n%s", state.Page.Title, state.Page.ID, describeBlocks(state.Blocks))
			return opts.formatter(cmd).Success(state, text)
		},
	}
}

func newPageTitleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "title <page-id> <title>",
		Short: "Rename a page (unknown IDs rename the home page)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parseID("page-id", args[0])
			if err != nil {
				return err
			}

			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			page, err := a.Pages.UpdateTitle(cmd.Context(), pageID, args[1])
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(page, fmt.Sprintf("Renamed page %d to %q", page.ID, page.Title))
		},
	}
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("%s must be a positive integer, got %q", name, raw))
	}
	return id, nil
}
