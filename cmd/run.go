package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cerberus/vessel/internal/backend"
	"github.com/cerberus/vessel/internal/workspace"
)

var (
	runService  string
	runWorkdir  string
	execService string
)

var runCmd = &cobra.Command{
	Use:   "run <project> [command...]",
	Short: "Run a one-off command in a new container",
	Long: `Start a one-off container for a service of the project graph and run a command
in it. The service defaults to the project itself and the working directory to
the service's workdir.

Examples:
  vessel run api go test ./...
  vessel run api -s db psql
  vessel run api -w /tmp ls
  vessel run api -s db -- psql -U postgres

Use -- before a command whose arguments start with a dash.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return orchestrate(cmd, args[0], func(plan *workspace.Plan, b *backend.Compose) error {
			service, workdir, err := runTarget(plan, args[0], runService, runWorkdir)
			if err != nil {
				return err
			}
			return b.Run(cmd.Context(), service, workdir, args[1:])
		})
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <project> [command...]",
	Short: "Run a command in a running container",
	Long: `Run a command inside the running container of a service of the project graph.
The service defaults to the project itself.

Examples:
  vessel exec api sh
  vessel exec api -s db -- psql -U postgres`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return orchestrate(cmd, args[0], func(plan *workspace.Plan, b *backend.Compose) error {
			service, _, err := runTarget(plan, args[0], execService, "")
			if err != nil {
				return err
			}
			return b.Exec(cmd.Context(), service, args[1:])
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runService, "service", "s", "", "service to run (default: the project)")
	runCmd.Flags().StringVarP(&runWorkdir, "workdir", "w", "", "working directory inside the container")

	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVarP(&execService, "service", "s", "", "service to exec into (default: the project)")
}

// runTarget resolves the service and working directory for run and exec.
func runTarget(plan *workspace.Plan, project, service, workdir string) (string, string, error) {
	if service == "" {
		service = project
	}
	for _, p := range plan.Projects {
		if p.Name != service {
			continue
		}
		if workdir == "" {
			workdir = p.Workdir
		}
		return service, workdir, nil
	}
	return "", "", fmt.Errorf("service %q is not part of project %q", service, project)
}
