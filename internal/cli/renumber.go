package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/cascade-tools/internal/dataset"
)

func newRenumberCmd(a *app) *cobra.Command {
	var (
		dir    string
		prefix string
		list   string
	)

	cmd := &cobra.Command{
		Use:   "renumber",
		Short: "Rename the images in a directory to 1..n",
		Long: `Renames every image in the directory to consecutive ids starting at 1,
keeping their numeric order. Files that cannot be renamed are logged and
left alone. With --list the resulting paths are also written to a file,
one per line, ready to use as a background description.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger()
			if err != nil {
				return err
			}
			res, err := dataset.Renumber(dir, prefix, log)
			if err != nil {
				return err
			}
			if list != "" {
				if err := dataset.WriteList(list, res.Lines); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %d, skipped %d, total %d\n", res.Renamed, res.Skipped, len(res.Lines))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to renumber")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix for paths in the --list file")
	cmd.Flags().StringVar(&list, "list", "", "Write the renumbered paths to this file")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}
