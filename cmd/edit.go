package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/config"
	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/project"
)

var editCmd = &cobra.Command{
	Use:   "edit <project>",
	Short: "Open a project's config in your editor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := requireProject(name); err != nil {
			return err
		}
		if err := openEditor(cmd.Context(), paths.ProjectConfig(sess.root, name)); err != nil {
			return err
		}

		rec, err := sess.store.Load(name)
		if err == nil {
			_, err = project.New(rec)
		}
		if err != nil {
			sess.log.Warn("project config is not valid", zap.String("project", name), zap.Error(err))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the global config in your editor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openEditor(cmd.Context(), paths.GlobalConfig(sess.root)); err != nil {
			return err
		}
		if _, err := config.Load(sess.root, nil); err != nil {
			sess.log.Warn("global config is not valid", zap.Error(err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(configCmd)
}

// editorArgv splits $EDITOR, falling back to $VISUAL, into an argv ending in
// path.
func editorArgv(lookup func(string) string, path string) ([]string, error) {
	editor := lookup("EDITOR")
	if editor == "" {
		editor = lookup("VISUAL")
	}
	if editor == "" {
		return nil, errNoEditor
	}
	argv, err := shellwords.Parse(editor)
	if err != nil {
		return nil, fmt.Errorf("cannot parse editor %q: %w", editor, err)
	}
	if len(argv) == 0 {
		return nil, errNoEditor
	}
	return append(argv, path), nil
}

func openEditor(ctx context.Context, path string) error {
	argv, err := editorArgv(os.Getenv, path)
	if err != nil {
		return err
	}
	sess.log.Debug("opening editor", zap.Strings("argv", argv))

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	return nil
}
