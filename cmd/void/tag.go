package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// newTagCmds creates the tag-* subcommands.
func newTagCmds() []*cobra.Command {
	add := &cobra.Command{
		Use:   "tag-add <path> <tags...>",
		Short: "Attach tags to a store entry",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return st.TagAdd(args[0], args[1:]...)
		},
	}

	remove := &cobra.Command{
		Use:   "tag-remove <path> <tags...>",
		Short: "Detach tags from a store entry",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return st.TagRemove(args[0], args[1:]...)
		},
	}

	get := &cobra.Command{
		Use:   "tag-get <path>",
		Short: "Print the tags of a store entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			tags, err := st.TagGet(args[0])
			if err != nil {
				return err
			}
			slices.Sort(tags)
			for _, tag := range tags {
				fmt.Println(tag)
			}
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "tag-clear <path>",
		Short: "Remove all tags from a store entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			return st.TagClear(args[0])
		},
	}

	list := &cobra.Command{
		Use:   "tag-list",
		Short: "List every tag used in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			tags := st.TagList()
			slices.Sort(tags)
			for _, tag := range tags {
				fmt.Println(tag)
			}
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "tag-search <tags...>",
		Short: "Find entries by tag",
		Long: `Finds entries carrying every given tag. Prefix a tag with '!' to
exclude entries carrying it instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			files := st.TagSearch(args)
			names := make([]string, 0, len(files))
			for _, file := range files {
				names = append(names, file.Name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	return []*cobra.Command{add, remove, get, clear, list, search}
}
