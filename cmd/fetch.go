package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func fetchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetches a page once and prints it with the word replaced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			asJSON, _ := cmd.Flags().GetBool("json")

			p, err := newProxy(ctx, a.cfg, nil)
			if err != nil {
				return err
			}

			page, err := p.Fetch(ctx, args[0])
			if err != nil {
				return fmt.Errorf("could not fetch content: %w", err)
			}

			out := cmd.OutOrStdout()
			if !asJSON {
				_, err = fmt.Fprintln(out, page.Content)

				return err
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			return enc.Encode(page)
		},
	}

	cmd.Flags().Bool("json", false, "Print the page with its metadata as JSON")

	return cmd
}
