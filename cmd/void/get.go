package main

import (
	"github.com/spf13/cobra"
)

// newGetCmd creates the get subcommand.
func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <internal-path> <external-path>",
		Short: "Decrypt a file or folder out of the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return st.Get(args[0], args[1])
		},
	}
}
