package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"blockpage/internal/domain"
)

// payloadFlags are shared by the commands that write block content.
type payloadFlags struct {
	Text   string
	Style  string
	Image  string
	Width  int
	Height int
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Text, "text", "", "text content (text block)")
	cmd.Flags().StringVar(&p.Style, "style", string(domain.TextStyleParagraph), "text style: h1, h2, h3 or p")
	cmd.Flags().StringVar(&p.Image, "image", "", "image source (image block)")
	cmd.Flags().IntVar(&p.Width, "width", 0, "image width in pixels")
	cmd.Flags().IntVar(&p.Height, "height", 0, "image height in pixels")
	cmd.MarkFlagsMutuallyExclusive("text", "image")
	cmd.MarkFlagsOneRequired("text", "image")
}

func (p *payloadFlags) payload(cmd *cobra.Command) domain.Payload {
	if cmd.Flags().Changed("image") {
		img := domain.ImagePayload{Src: p.Image}
		if cmd.Flags().Changed("width") {
			w := p.Width
			img.Width = &w
		}
		if cmd.Flags().Changed("height") {
			h := p.Height
			img.Height = &h
		}
		return img
	}
	return domain.TextPayload{Text: p.Text, Style: domain.TextStyle(p.Style)}
}

// NewBlockCommand groups the block subcommands.
func NewBlockCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "List and edit the blocks of a page",
	}
	cmd.AddCommand(newBlockListCommand(opts))
	cmd.AddCommand(newBlockAppendCommand(opts))
	cmd.AddCommand(newBlockInsertCommand(opts))
	cmd.AddCommand(newBlockUpdateCommand(opts))
	cmd.AddCommand(newBlockDeleteCommand(opts))
	cmd.AddCommand(newBlockMoveCommand(opts))
	return cmd
}

func newBlockListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <page-id>",
		Short: "List a page's blocks in display order",
		Args:  cobra.ExactArgs(1),
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

			blocks, err := a.Blocks.ListBlocks(cmd.Context(), pageID)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(blocks, describeBlocks(blocks))
		},
	}
}

func newBlockAppendCommand(opts *RootOptions) *cobra.Command {
	var flags payloadFlags
	cmd := &cobra.Command{
		Use:   "append <page-id>",
		Short: "Add a block at the end of a page",
		Example: `  blockpage block append 1 --text "Hello" --style h1
  blockpage block append 1 --image https://example.com/cat.png --width 320`,
		Args: cobra.ExactArgs(1),
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

			b, err := a.Blocks.AppendBlock(cmd.Context(), pageID, flags.payload(cmd))
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(b, describeBlock(*b))
		},
	}
	flags.register(cmd)
	return cmd
}

func newBlockInsertCommand(opts *RootOptions) *cobra.Command {
	var flags payloadFlags
	cmd := &cobra.Command{
		Use:   "insert <page-id> <after-block-id>",
		Short: "Insert a block directly after another one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parseID("page-id", args[0])
			if err != nil {
				return err
			}
			afterID, err := parseID("after-block-id", args[1])
			if err != nil {
				return err
			}
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.Blocks.InsertBlockAfter(cmd.Context(), pageID, afterID, flags.payload(cmd))
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(b, describeBlock(*b))
		},
	}
	flags.register(cmd)
	return cmd
}

func newBlockUpdateCommand(opts *RootOptions) *cobra.Command {
	var flags payloadFlags
	cmd := &cobra.Command{
		Use:   "update <block-id>",
		Short: "Replace a block's content, keeping its position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blockID, err := parseID("block-id", args[0])
			if err != nil {
				return err
			}
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.Blocks.UpdateBlockContent(cmd.Context(), blockID, flags.payload(cmd))
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(b, describeBlock(*b))
		},
	}
	flags.register(cmd)
	return cmd
}

func newBlockDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <block-id>",
		Short: "Delete a block (succeeds if it is already gone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blockID, err := parseID("block-id", args[0])
			if err != nil {
				return err
			}
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Blocks.DeleteBlock(cmd.Context(), blockID); err != nil {
				return err
			}
			data := map[string]int64{"deleted": blockID}
			return opts.formatter(cmd).Success(data, fmt.Sprintf("Deleted block %d", blockID))
		},
	}
}

func newBlockMoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "move <block-id> <up|down>",
		Short:     "Swap a block with its neighbor",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(domain.DirectionUp), string(domain.DirectionDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			blockID, err := parseID("block-id", args[0])
			if err != nil {
				return err
			}
			a, err := opts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Blocks.MoveBlock(cmd.Context(), blockID, domain.Direction(args[1]))
			if err != nil {
				return err
			}
			text := fmt.Sprintf("Moved block %d %s", blockID, args[1])
			if !res.Moved {
				text = fmt.Sprintf("Block %d is already at the edge", blockID)
			}
			return opts.formatter(cmd).Success(res, text)
		},
	}
}
