package main

import (
	"fmt"
	"io"
	"strings"

	"faleproxy/pkg/replacer"

	"github.com/spf13/cobra"
)

func replaceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace [text...]",
		Short: "Replaces the word in the given text, or in stdin when no text is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := replacer.ParseCaseMode(a.cfg.Rewriter.CaseMode)
			if err != nil {
				return err
			}
			r, err := replacer.New(a.cfg.Rewriter.From, a.cfg.Rewriter.To, mode)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Replace(strings.Join(args, " ")))

				return err
			}

			in, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("could not read stdin: %w", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), r.Replace(string(in)))

			return err
		},
	}

	return cmd
}
