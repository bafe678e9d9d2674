package cli

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/ironsheep/cascade-tools/internal/dataset"
)

func newAnnotateCmd(a *app) *cobra.Command {
	var (
		dir       string
		prefix    string
		out       string
		size      string
		negatives bool
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Write the annotation file for a sample collection",
		Long: `Writes one line per sample in the form opencv_createsamples and
opencv_traincascade expect:

  <prefix>/<file> 1 0 0 <width> <height>

Files are listed in numeric order (2.jpg before 10.jpg). The object is the
whole sample; its size is read from each file unless --size is given.
Only files named <id>.<ext> are samples; other images are skipped.
With --negatives a plain list of paths is written instead, for the
background description file. The output file is replaced, never appended.`,
		Example: `  cascade-tools annotate --dir data/Good --prefix Good --out data/info.dat
  cascade-tools annotate --dir data/Bad --prefix Bad --out data/bg.txt --negatives`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if negatives {
				names, err := dataset.ListSamples(dir)
				if err != nil {
					return err
				}
				lines := make([]string, len(names))
				for i, n := range names {
					lines[i] = path.Join(prefix, n)
				}
				if err := dataset.WriteList(out, lines); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d paths\n", out, len(lines))
				return nil
			}

			var region *dataset.Region
			if size != "" {
				s, err := parseSize(size)
				if err != nil {
					return err
				}
				region = &dataset.Region{Width: s.Width, Height: s.Height}
			}
			records, err := dataset.BuildManifest(dir, prefix, region)
			if err != nil {
				return err
			}
			if err := dataset.WriteManifest(out, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", out, len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Sample collection directory")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Path prefix for each line, e.g. Good")
	cmd.Flags().StringVar(&out, "out", "", "Annotation file to write")
	cmd.Flags().StringVar(&size, "size", "", "Fixed object size WIDTHxHEIGHT (default: read from each file)")
	cmd.Flags().BoolVar(&negatives, "negatives", false, "Write a background path list instead")
	_ = cmd.MarkFlagRequired("dir")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
