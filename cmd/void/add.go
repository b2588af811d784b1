package main

import (
	"github.com/spf13/cobra"

	"github.com/acristoffers/void/internal/progress"
)

// addOptions holds CLI flags for the add command.
type addOptions struct {
	noProgress bool
}

// newAddCmd creates the add subcommand.
func newAddCmd() *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add <internal-path> <files...>",
		Short: "Encrypt files or folders into the store",
		Long: `Encrypts each given file or folder into the store at the internal path.

A trailing slash on a folder source copies the folder's contents instead
of the folder itself, as in rsync:
  void add -s vault /docs reports/   places reports' files under /docs
  void add -s vault /docs reports    places them under /docs/reports
                                     (or under /docs when /docs does not exist yet)`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			internal, files := args[0], args[1:]

			bar := progress.New(!opts.noProgress && len(files) > 1, int64(len(files)))
			defer bar.Finish()
			for _, file := range files {
				bar.Describe("Adding " + file)
				if err := st.Add(file, internal); err != nil {
					return err
				}
				bar.Add(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")

	return cmd
}
