package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show a project's config",
	Long: `Print the config of a project. TOML prints the file as stored; JSON and YAML
print the decoded record.

Examples:
  vessel show api
  vessel show api -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "toml", "output format: toml, json, or yaml")
}

func runShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := requireProject(name); err != nil {
		return err
	}

	switch showOutput {
	case "toml":
		data, err := sess.store.Raw(name)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	case "json":
		rec, err := sess.store.Load(name)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml":
		rec, err := sess.store.Load(name)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (expected toml, json, or yaml)", showOutput)
	}
}
