package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type listEntry struct {
	Name         string   `json:"name"`
	Image        string   `json:"image,omitempty"`
	CustomBuild  bool     `json:"custom_build,omitempty"`
	Dependencies []string `json:"dependencies"`
	Error        string   `json:"error,omitempty"`
}

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Long: `List every project under the vessel root.

Examples:
  vessel list
  vessel list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	names, err := sess.store.List()
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	entries := make([]listEntry, 0, len(names))
	for _, name := range names {
		e := listEntry{Name: name, Dependencies: []string{}}
		rec, err := sess.store.Load(name)
		if err != nil {
			sess.log.Debug("cannot load project", zap.String("project", name), zap.Error(err))
			e.Error = err.Error()
		} else {
			e.Image = rec.Image
			e.CustomBuild = rec.CustomBuild
			if len(rec.Dependencies) > 0 {
				e.Dependencies = rec.Dependencies
			}
		}
		entries = append(entries, e)
	}

	// Output JSON if requested
	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tIMAGE\tDEPENDENCIES")
	for _, e := range entries {
		image := e.Image
		switch {
		case e.Error != "":
			image = "(unreadable)"
		case image == "" && e.CustomBuild:
			image = "(custom build)"
		case image == "":
			image = "-"
		}
		deps := "-"
		if len(e.Dependencies) > 0 {
			deps = strings.Join(e.Dependencies, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, image, deps)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nTotal: %d project(s)\n", len(entries))
	return nil
}
