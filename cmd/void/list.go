package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/acristoffers/void/internal/vfs"
)

// listOptions holds CLI flags for the ls command.
type listOptions struct {
	long  bool
	human bool
}

// newListCmd creates the ls subcommand.
func newListCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List store contents",
		Long: `Lists the entries at the given path, or at the root when no path is
given. The special path "*" lists every entry with its full path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			files, err := st.List(path)
			if err != nil {
				return err
			}
			printListing(files, opts)
			return nil
		},
	}

	// Define help without a shorthand so -h stays free for --human.
	cmd.Flags().Bool("help", false, "Help for ls")
	cmd.Flags().BoolVarP(&opts.long, "long", "l", false, "Show sizes")
	cmd.Flags().BoolVarP(&opts.human, "human", "h", false, "Human-readable sizes (implies -l)")

	return cmd
}

// printListing renders files as a table: directories first, then by
// name, with a '/' suffix marking directories.
func printListing(files []vfs.File, opts *listOptions) {
	slices.SortFunc(files, func(a, b vfs.File) int {
		if a.IsFile != b.IsFile {
			if a.IsFile {
				return 1
			}
			return -1
		}
		return strings.Compare(a.Name, b.Name)
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, file := range files {
		name := file.Name
		if !file.IsFile {
			name += "/"
		}
		if opts.long || opts.human {
			size := strconv.FormatUint(file.Size, 10)
			if opts.human {
				size = humanize.IBytes(file.Size)
			}
			fmt.Fprintf(w, "%s\t%s\n", name, size)
		} else {
			fmt.Fprintln(w, name)
		}
	}
	w.Flush()
}
