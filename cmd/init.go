package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/config"
	"github.com/cerberus/vessel/internal/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the vessel root and its global config",
	Long: `Create the vessel root directory and write a default global config.toml.
Existing files are left untouched, so init is safe to run again.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE:        runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	log := sess.log
	root := sess.root

	if _, err := os.Stat(root); os.IsNotExist(err) {
		log.Debug("creating vessel root", zap.String("path", root))
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", root, err)
		}
	} else {
		log.Debug("vessel root already exists", zap.String("path", root))
	}

	cfgPath := paths.GlobalConfig(root)
	if _, err := os.Stat(cfgPath); err == nil {
		log.Debug("global config already exists", zap.String("path", cfgPath))
		fmt.Printf("vessel already initialized in %s\n", root)
		return nil
	}
	if err := config.Default(root).Save(); err != nil {
		return err
	}
	fmt.Printf("Initialized vessel in %s\n", root)
	return nil
}
