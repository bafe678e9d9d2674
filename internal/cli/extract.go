package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/cascade-tools/internal/config"
	"github.com/ironsheep/cascade-tools/internal/dataset"
	"github.com/ironsheep/cascade-tools/internal/imaging"
	"github.com/ironsheep/cascade-tools/internal/video"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		videoPath     string
		outDir        string
		crop          string
		size          string
		ext           string
		quality       int
		noMirror      bool
		onWriteError  string
		startID       int
		manifest      string
		prefix        string
		progressEvery int
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Cut training samples out of a video",
		Long: `Decodes a video frame by frame, crops each frame, converts it to
grayscale, resizes it to the sample size and writes it (plus its mirror
image) into the output collection.

Samples are numbered after the highest id already in the directory, so the
same collection can be extended by several runs. Only one run may write to
a collection at a time.`,
		Example: `  # Add samples from a new clip to the positives
  cascade-tools extract --video clip07.mp4 --out data/Good

  # Different framing, and rewrite the annotation file afterwards
  cascade-tools extract --video clip08.mp4 --out data/Good \
    --crop 0,0,480,640 --size 24x32 --manifest data/info.dat --prefix Good`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			ex := &cfg.Extract
			flags := cmd.Flags()

			if flags.Changed("crop") {
				c, err := parseCrop(crop)
				if err != nil {
					return err
				}
				ex.Crop = c
			}
			if flags.Changed("size") {
				s, err := parseSize(size)
				if err != nil {
					return err
				}
				ex.Width, ex.Height = s.Width, s.Height
			}
			if flags.Changed("ext") {
				ex.Ext = ext
			}
			if flags.Changed("quality") {
				ex.Quality = quality
			}
			if noMirror {
				ex.Mirror = false
			}
			if flags.Changed("on-write-error") {
				ex.OnWriteError = onWriteError
			}
			if flags.Changed("progress-every") {
				ex.ProgressEvery = progressEvery
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := a.logger()
			if err != nil {
				return err
			}

			tr, err := imaging.NewTransformer(ex.Crop.Rect(), ex.Width, ex.Height, ex.Mirror)
			if err != nil {
				return err
			}
			policy, err := dataset.ParseWritePolicy(ex.OnWriteError)
			if err != nil {
				return err
			}
			// The source and crop are checked before anything touches the
			// collection directory.
			src, err := video.Open(cmd.Context(), videoPath, video.FFmpegOptions{
				FFmpegPath:  cfg.FFmpeg.FFmpegPath,
				FFprobePath: cfg.FFmpeg.FFprobePath,
			})
			if err != nil {
				return err
			}
			defer src.Close()
			if err := tr.Validate(src.Bounds()); err != nil {
				return err
			}

			writer, err := dataset.NewDirWriter(outDir, ex.Ext, ex.Quality)
			if err != nil {
				return err
			}

			var num *dataset.Numberer
			if startID > 0 {
				num = dataset.NewNumbererAt(startID)
			} else {
				num, err = dataset.ScanNumberer(outDir, ex.Ext)
				if err != nil {
					return err
				}
			}

			log.Infof("Extracting %s into %s starting at id %d (%d existing samples)", videoPath, outDir, num.Start(), num.Existing())

			stats, err := (&dataset.Extractor{
				Source:        src,
				Transformer:   tr,
				Numberer:      num,
				Writer:        writer,
				Log:           log,
				Policy:        policy,
				ProgressEvery: ex.ProgressEvery,
			}).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "frames:  %d\n", stats.Frames)
			fmt.Fprintf(out, "written: %d\n", stats.Written)
			if stats.Written > 0 {
				fmt.Fprintf(out, "ids:     %d-%d\n", stats.FirstID, stats.LastID)
			}
			if stats.Failed > 0 {
				fmt.Fprintf(out, "failed:  %d\n", stats.Failed)
			}
			if stats.Stopped {
				fmt.Fprintln(out, "stopped before the end of the video")
			}

			if manifest != "" {
				records, err := dataset.BuildManifest(outDir, prefix, &dataset.Region{Width: ex.Width, Height: ex.Height})
				if err != nil {
					return err
				}
				if err := dataset.WriteManifest(manifest, records); err != nil {
					return err
				}
				fmt.Fprintf(out, "manifest: %s (%d records)\n", manifest, len(records))
			}
			return nil
		},
	}

	// Help shows the built-in defaults; the config file is applied at run time.
	d := config.Default()
	cmd.Flags().StringVar(&videoPath, "video", "", "Input video (or a single image)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output collection directory")
	cmd.Flags().StringVar(&crop, "crop", d.Extract.Crop.String(), "Crop rectangle x0,y0,x1,y1 (x1,y1 exclusive)")
	cmd.Flags().StringVar(&size, "size", fmt.Sprintf("%dx%d", d.Extract.Width, d.Extract.Height), "Sample size WIDTHxHEIGHT")
	cmd.Flags().StringVar(&ext, "ext", d.Extract.Ext, "Sample file extension")
	cmd.Flags().IntVar(&quality, "quality", d.Extract.Quality, "JPEG quality 1-100")
	cmd.Flags().BoolVar(&noMirror, "no-mirror", false, "Do not add a mirrored copy of each sample")
	cmd.Flags().StringVar(&onWriteError, "on-write-error", d.Extract.OnWriteError, "abort or skip")
	cmd.Flags().IntVar(&startID, "start-id", 0, "First sample id (0 continues after the highest id on disk)")
	cmd.Flags().StringVar(&manifest, "manifest", "", "Rewrite this annotation file for the whole collection afterwards")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Path prefix for manifest lines, e.g. Good")
	cmd.Flags().IntVar(&progressEvery, "progress-every", d.Extract.ProgressEvery, "Log progress every N frames (0 disables)")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
