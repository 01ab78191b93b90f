package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/fibers/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe an error code",
		Long: `Print the category, message and explanation of an error code.
Without a code, list every registered code.

Examples:
  fibers explain
  fibers explain E102`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.Codes() {
					t, _ := errors.Lookup(code)
					fmt.Fprintf(w, "%s  %-10s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			t, ok := errors.Lookup(code)
			if !ok {
				return fmt.Errorf("unknown error code %q", args[0])
			}
			fmt.Fprintf(w, "%s: %s\n", code, t.Message)
			info(w, "Category: %s", t.Category)
			if t.Explanation != "" {
				fmt.Fprintln(w)
				info(w, "%s", t.Explanation)
			}
			return nil
		},
	}
}
