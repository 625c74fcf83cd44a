package main

import (
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/zeptools/legalgram/docs"
)

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		fields fieldOptions
		raw    bool
		width  int
	)
	cmd := &cobra.Command{
		Use:   "preview <type>",
		Short: "Show the assembled document as Markdown on the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, state, err := fields.state(cmd, opts.logger, args[0])
			if err != nil {
				return err
			}
			md, err := docs.Markdown(def, state)
			if err != nil {
				return err
			}
			if raw {
				return copyTo(cmd.OutOrStdout(), md)
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return err
			}
			out, err := r.Render(md)
			if err != nil {
				return err
			}
			return copyTo(cmd.OutOrStdout(), out)
		},
	}
	fields.register(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "print the Markdown source")
	cmd.Flags().IntVar(&width, "width", 80, "wrap width")
	return cmd
}
