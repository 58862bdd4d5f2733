package cmd

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/config"
	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/project"
	"github.com/cerberus/vessel/internal/store"
)

// Used when the language has no base image configured.
const defaultBaseImage = "debian:stable-slim"

var createLanguage string

var createCmd = &cobra.Command{
	Use:   "create <project>",
	Short: "Create a new project",
	Long: `Create a project directory under the vessel root with a Dockerfile and a default
config.toml. The language selects the base image and Dockerfile from the global
config.

Examples:
  vessel create api -l golang
  vessel create scripts --language python`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createLanguage, "language", "l", "", "project language")
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if sess.store.Exists(name) {
		return fmt.Errorf("%w: %s", store.ErrProjectAlreadyExists, sess.store.Dir(name))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	lang, known := sess.global.Language(createLanguage)
	if createLanguage != "" && !known {
		sess.log.Warn("language is not configured, using defaults", zap.String("language", createLanguage))
	}

	dockerfile, err := dockerfileFor(lang, name)
	if err != nil {
		return err
	}
	rec := newProjectRecord(sess.global, sess.store.Dir(name), name, createLanguage, lang, cwd)
	if err := sess.store.Create(rec); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(rec.Dir, paths.Dockerfile), dockerfile, 0o644); err != nil {
		return fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	fmt.Printf("Created project %q in %s\n", name, rec.Dir)
	return nil
}

// newProjectRecord builds the record written by create. Without a base image
// the project builds from its own Dockerfile.
func newProjectRecord(g *config.Global, dir, name, language string, lang config.Language, cwd string) *project.Record {
	language = strings.ToLower(strings.TrimSpace(language))
	rec := &project.Record{
		Name:           name,
		Image:          lang.BaseImage,
		CustomBuild:    lang.BaseImage == "",
		Language:       language,
		DefaultBackend: g.DefaultBackend,
		Workdir:        "/" + name,
		Caps:           []string{},
		Ports:          map[string]any{},
		Volumes:        maps.Clone(g.DefaultVolumes),
		Dependencies:   []string{},
		OtherProjects:  []string{},
		Environment: project.EnvironmentRecord{
			Host:      map[string]any{},
			Container: map[string]any{},
		},
		Dir: dir,
	}
	if rec.Volumes == nil {
		rec.Volumes = map[string]string{}
	}
	if g.SetProjectPathToCwd {
		rec.Hostdir = cwd
	}
	// No <dir>/data volume is seeded: it has no container path to bind to.
	if language == "python" {
		rec.Volumes[filepath.Join(dir, "venv")] = "/root/.virtualenvs"
	}
	return rec
}

// dockerfileFor returns the language's base Dockerfile, or a minimal one
// built from its base image.
func dockerfileFor(lang config.Language, name string) ([]byte, error) {
	if lang.BaseDockerfile != "" {
		path, err := homedir.Expand(lang.BaseDockerfile)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read base Dockerfile: %w", err)
		}
		return data, nil
	}
	image := lang.BaseImage
	if image == "" {
		image = defaultBaseImage
	}
	return []byte(fmt.Sprintf("FROM %s\n\nWORKDIR /%s\n", image, name)), nil
}
