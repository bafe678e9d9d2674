package cli

import (
	"fmt"
	"os"

	"github.com/cyclopcam/logs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ironsheep/cascade-tools/internal/config"
)

// app carries state shared by every subcommand.
type app struct {
	version    string
	configPath string
	cfg        *config.Config
	log        logs.Log
}

// logger returns the shared log, creating it on first use.
func (a *app) logger() (logs.Log, error) {
	if a.log != nil {
		return a.log, nil
	}
	l, err := logs.NewLog()
	if err != nil {
		return nil, fmt.Errorf("failed to create log: %w", err)
	}
	a.log = l
	return l, nil
}

// stderrLogger is logger for commands that own stdout. logs.NewLog binds
// to os.Stdout at construction, so it is pointed at stderr for the call.
func (a *app) stderrLogger() (logs.Log, error) {
	if a.log != nil {
		return a.log, nil
	}
	stdout := os.Stdout
	os.Stdout = os.Stderr
	defer func() { os.Stdout = stdout }()
	return a.logger()
}

// NewRootCmd builds the command tree. version is reported by the MCP server.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	cmd := &cobra.Command{
		Use:   "cascade-tools",
		Short: "Build Haar cascade training sets from video and run trained cascades",
		Long: `cascade-tools curates object-detection training data and runs the
resulting models.

It cuts fixed-size grayscale samples out of recorded video, keeps sample
collections numbered, writes the annotation files opencv_traincascade reads,
and runs a trained cascade over photos.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")

	cmd.AddCommand(
		newExtractCmd(a),
		newAnnotateCmd(a),
		newDetectCmd(a),
		newRenumberCmd(a),
		newMCPCmd(a),
	)

	return cmd
}
