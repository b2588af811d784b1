package main

import (
	"github.com/spf13/cobra"
)

// newRemoveCmd creates the rm subcommand.
func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a file or folder from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return st.Remove(args[0])
		},
	}
}
