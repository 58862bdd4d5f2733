package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/workspace"
)

var watchCmd = &cobra.Command{
	Use:   "watch <project>",
	Short: "Re-render a project's compose file when any config in its graph changes",
	Long: `Watch the config of a project, of every project it depends on, and the global
config. The compose file is rendered again after each change. Invalid configs are
reported and the last good compose file is kept.

Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := requireProject(name); err != nil {
			return err
		}
		opts, err := workspaceOptions(false)
		if err != nil {
			return err
		}
		return workspace.Watch(cmd.Context(), sess.store, name, opts, func(plan *workspace.Plan, err error) {
			if err != nil {
				sess.log.Error("render failed", zap.String("project", name), zap.Error(err))
				return
			}
			fmt.Printf("Rendered %s (%d services)\n", plan.File, len(plan.Projects))
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
