package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cerberus/vessel/internal/backend"
	"github.com/cerberus/vessel/internal/paths"
)

var exportDryRun bool

var exportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Render and print the compose file of a project",
	Long: `Render the compose file of a project and its dependencies, write it next to the
project config and print it.

Examples:
  vessel export api
  vessel export api --dry-run > docker-compose.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := prepare(cmd, args[0], exportDryRun)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(plan.Compose)
		return err
	},
}

var logsFollow bool

var logsCmd = &cobra.Command{
	Use:   "logs <project>",
	Short: "Show the logs of a running project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := requireProject(name); err != nil {
			return err
		}
		file := paths.ProjectCompose(sess.root, name)
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("no compose file for %q, run `vessel up %s` first", name, name)
		}

		rec, err := sess.store.Load(name)
		if err != nil {
			return err
		}
		id := sess.global.DefaultBackend
		if rec.DefaultBackend != "" {
			id = rec.DefaultBackend
		}
		b, err := backend.New(id, file)
		if err != nil {
			return err
		}
		b.Logger = sess.log
		return b.Logs(cmd.Context(), logsFollow)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "print without writing the compose file")

	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", true, "follow log output")
}
