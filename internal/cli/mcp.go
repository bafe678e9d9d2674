package cli

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/cascade-tools/internal/server"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over MCP on stdin/stdout",
		Long: `Runs a Model Context Protocol server over stdio so an MCP client can
run detection and manage collections. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.stderrLogger()
			if err != nil {
				return err
			}
			server.Version = a.version
			return server.New(a.cfg, log).Run(cmd.Context())
		},
	}
}
