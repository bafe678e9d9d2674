package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/cascade-tools/internal/config"
	"github.com/ironsheep/cascade-tools/internal/detection"
	"github.com/ironsheep/cascade-tools/internal/imaging"
)

func newDetectCmd(a *app) *cobra.Command {
	var (
		modelPath      string
		imagePath      string
		outPath        string
		scaleFactor    float64
		minNeighbors   int
		minSize        string
		maxSize        string
		equalize       bool
		mergeThreshold float64
		step           int
		workers        int
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run a trained cascade over a photo",
		Long: `Loads a cascade trained with opencv_traincascade and reports every
region it finds in the image. Finding nothing is not an error.

With --out a copy of the image is written with each detection outlined and
numbered in the order listed.`,
		Example: `  cascade-tools detect --model cascade/cascade.xml --image photos/dog12.jpg
  cascade-tools detect --model cascade/cascade.xml --image photos/dog12.jpg \
    --min-neighbors 3 --out dog12-teeth.jpg --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.cfg.Detect
			flags := cmd.Flags()

			if flags.Changed("scale-factor") {
				p.ScaleFactor = scaleFactor
			}
			if flags.Changed("min-neighbors") {
				p.MinNeighbors = minNeighbors
			}
			if flags.Changed("min-size") {
				s, err := parseSize(minSize)
				if err != nil {
					return err
				}
				p.MinSize = s
			}
			if flags.Changed("max-size") {
				s, err := parseSize(maxSize)
				if err != nil {
					return err
				}
				p.MaxSize = s
			}
			if flags.Changed("equalize") {
				p.Equalize = equalize
			}
			if flags.Changed("merge-threshold") {
				p.MergeThreshold = mergeThreshold
			}
			if flags.Changed("step") {
				p.Step = step
			}
			if flags.Changed("workers") {
				p.Workers = workers
			}
			if err := p.Validate(); err != nil {
				return &config.ConfigError{Field: "detect", Err: err}
			}

			cascade, err := detection.LoadCascade(modelPath)
			if err != nil {
				return err
			}
			det, err := detection.NewDetector(cascade, p)
			if err != nil {
				return err
			}

			img, err := imaging.Open(imagePath)
			if err != nil {
				return &detection.InvalidImageError{Path: imagePath, Reason: "cannot decode", Err: err}
			}
			res, err := det.Detect(cmd.Context(), img)
			if err != nil {
				return err
			}

			if outPath != "" {
				annotated := imaging.DrawBoxes(img, detection.Boxes(res.Detections), a.cfg.Overlay.BoxColor, a.cfg.Overlay.LineWidth)
				if err := imaging.Save(annotated, outPath, a.cfg.Extract.Quality); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printDetections(cmd.OutOrStdout(), imagePath, res)
			return nil
		},
	}

	d := config.Default().Detect
	cmd.Flags().StringVar(&modelPath, "model", "", "Cascade XML from opencv_traincascade")
	cmd.Flags().StringVar(&imagePath, "image", "", "Photo to scan")
	cmd.Flags().StringVar(&outPath, "out", "", "Write an annotated copy of the image here")
	cmd.Flags().Float64Var(&scaleFactor, "scale-factor", d.ScaleFactor, "Pyramid step between scales, in (1, 2)")
	cmd.Flags().IntVar(&minNeighbors, "min-neighbors", d.MinNeighbors, "Windows that must agree on a region (0 disables grouping)")
	cmd.Flags().StringVar(&minSize, "min-size", fmt.Sprintf("%dx%d", d.MinSize.Width, d.MinSize.Height), "Smallest window WIDTHxHEIGHT")
	cmd.Flags().StringVar(&maxSize, "max-size", fmt.Sprintf("%dx%d", d.MaxSize.Width, d.MaxSize.Height), "Largest window WIDTHxHEIGHT")
	cmd.Flags().BoolVar(&equalize, "equalize", d.Equalize, "Equalize the histogram before scanning")
	cmd.Flags().Float64Var(&mergeThreshold, "merge-threshold", d.MergeThreshold, "Shared fraction of the smaller window needed to group two windows")
	cmd.Flags().IntVar(&step, "step", d.Step, "Window stride in pixels at each scale")
	cmd.Flags().IntVar(&workers, "workers", 0, "Scales scanned in parallel (0 = number of CPUs)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

func printDetections(w io.Writer, path string, res *detection.Result) {
	fmt.Fprintf(w, "%s: %d detections (%d candidate windows over %d scales)\n", path, res.Count, res.Candidates, res.Scales)
	if res.Count == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tX\tY\tWIDTH\tHEIGHT\tNEIGHBORS")
	for i, d := range res.Detections {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\n", i+1, d.X, d.Y, d.Width, d.Height, d.Neighbors)
	}
	tw.Flush()
}
