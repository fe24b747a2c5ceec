package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blogfront/internal/errors"
)

func codesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes [code]",
		Short: "List error codes, or explain one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				if _, ok := errors.GetTemplate(args[0]); !ok {
					return fmt.Errorf("unknown error code %q", args[0])
				}
				fmt.Fprint(out, errors.New(args[0]).Format())
				return nil
			}

			for _, code := range errors.GetAllCodes() {
				t, _ := errors.GetTemplate(code)
				status := "-"
				if t.Status > 0 {
					status = fmt.Sprint(t.Status)
				}
				fmt.Fprintf(out, "%s  %-3s  %-9s %s\n", code, status, t.Category, t.Message)
			}
			return nil
		},
	}
}
