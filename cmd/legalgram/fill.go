package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeptools/legalgram/tui"
)

func newFillCmd(opts *rootOptions) *cobra.Command {
	var (
		fields fieldOptions
		output outputOptions
		save   string
	)
	cmd := &cobra.Command{
		Use:   "fill <type>",
		Short: "Fill a document step by step in the terminal, then render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := fields.registry(opts.logger)
			if err != nil {
				return err
			}
			def, err := registry.Get(args[0])
			if err != nil {
				return err
			}
			values, err := fields.values()
			if err != nil {
				return err
			}
			session := def.NewSession()
			if ignored := session.State.Merge(values); len(ignored) > 0 {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "ignored unknown fields: %s\n", strings.Join(ignored, ", "))
			}
			session, generate, err := tui.Run(def, session)
			if err != nil {
				return err
			}
			if save != "" {
				if err = writeFields(save, session.State); err != nil {
					return err
				}
			}
			if !generate {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "cancelled")
				return nil
			}
			return output.write(cmd, opts.logger, def, session.State)
		},
	}
	fields.register(cmd)
	output.register(cmd)
	cmd.Flags().StringVar(&save, "save", "", "write the entered values to this JSON file")
	return cmd
}
