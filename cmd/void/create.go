package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acristoffers/void/internal/store"
)

// newCreateCmd creates the create subcommand.
func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <store>",
		Short: "Create a new encrypted store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pswd, err := newPassword(cmd)
			if err != nil {
				return err
			}
			if _, err := store.Create(args[0], pswd); err != nil {
				return err
			}
			fmt.Println("Store created.")
			return nil
		},
	}
}
