package main

import (
	"github.com/spf13/cobra"
)

// newMoveCmd creates the mv subcommand.
func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <source> <destination>",
		Short: "Move a file or folder inside the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return st.Mv(args[0], args[1])
		},
	}
}
