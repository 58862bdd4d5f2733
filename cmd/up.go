package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cerberus/vessel/internal/backend"
	"github.com/cerberus/vessel/internal/workspace"
)

var upCmd = &cobra.Command{
	Use:   "up <project>",
	Short: "Start a project and everything it depends on",
	Long: `Render the compose file of a project and its dependencies, then recreate and
start every service in the background.

Examples:
  vessel up api
  vessel up api --other-projects=depend`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return orchestrate(cmd, args[0], func(_ *workspace.Plan, b *backend.Compose) error {
			return b.Up(cmd.Context())
		})
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <project>",
	Short: "Kill every service of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return orchestrate(cmd, args[0], func(_ *workspace.Plan, b *backend.Compose) error {
			return b.Kill(cmd.Context())
		})
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(killCmd)
}
