package main

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newMetadataCmds creates the metadata-* subcommands.
func newMetadataCmds() []*cobra.Command {
	set := &cobra.Command{
		Use:   "metadata-set <path> <key> <value>",
		Short: "Set a metadata key on a store entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return st.MetadataSet(args[0], args[1], args[2])
		},
	}

	get := &cobra.Command{
		Use:   "metadata-get <path> <key>",
		Short: "Print a metadata value of a store entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			value, err := st.MetadataGet(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", args[1], value)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "metadata-list <path>",
		Short: "List all metadata of a store entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			metadata, err := st.MetadataList(args[0])
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(metadata))
			for key := range metadata {
				keys = append(keys, key)
			}
			slices.Sort(keys)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, key := range keys {
				fmt.Fprintf(w, "%s\t%s\n", key, metadata[key])
			}
			return w.Flush()
		},
	}

	remove := &cobra.Command{
		Use:   "metadata-remove <path> <key>",
		Short: "Remove a metadata key from a store entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return st.MetadataRemove(args[0], args[1])
		},
	}

	return []*cobra.Command{set, get, list, remove}
}
