package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cerberus/vessel/internal/backend"
	"github.com/cerberus/vessel/internal/workspace"
)

func workspaceOptions(dryRun bool) (workspace.Options, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return workspace.Options{}, fmt.Errorf("failed to get current directory: %w", err)
	}
	return workspace.Options{
		Global: sess.global,
		Cwd:    cwd,
		DryRun: dryRun,
		Logger: sess.log,
	}, nil
}

// prepare renders and writes the compose file of name.
func prepare(cmd *cobra.Command, name string, dryRun bool) (*workspace.Plan, error) {
	if err := requireProject(name); err != nil {
		return nil, err
	}
	opts, err := workspaceOptions(dryRun)
	if err != nil {
		return nil, err
	}
	return workspace.Prepare(cmd.Context(), sess.store, name, opts)
}

// orchestrate prepares name and hands its compose file to the backend.
func orchestrate(cmd *cobra.Command, name string, fn func(*workspace.Plan, *backend.Compose) error) error {
	plan, err := prepare(cmd, name, false)
	if err != nil {
		return err
	}
	b, err := plan.Backend()
	if err != nil {
		return err
	}
	return fn(plan, b)
}
