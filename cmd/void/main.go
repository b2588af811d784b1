package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:          "void",
		Short:        "Manage password-protected encrypted file stores",
		Version:      version + " (" + commit + ")",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("store", "s", "", "Path to the store (or VOID_STORE)")
	root.PersistentFlags().StringP("password", "p", "", "Store password (or VOID_PSWD)")

	root.AddCommand(
		newCreateCmd(),
		newAddCmd(),
		newGetCmd(),
		newRemoveCmd(),
		newMoveCmd(),
		newListCmd(),
	)
	root.AddCommand(newMetadataCmds()...)
	root.AddCommand(newTagCmds()...)

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
