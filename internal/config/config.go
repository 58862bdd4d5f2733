// Package config loads the process-wide vessel settings stored in
// <root>/config.toml. Scalar settings go through viper so they can be
// overridden by VESSEL_* environment variables and command-line flags; tables
// keyed by host paths or language names are decoded with go-toml because
// viper folds keys to lower case.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/store"
)

// ErrNotInitialized indicates the root or its global config is missing.
var ErrNotInitialized = errors.New("vessel is not initialized, please run `vessel init` first")

// OtherProjectsMode controls how other_projects edges are treated.
type OtherProjectsMode string

const (
	// OtherProjectsDiscover pulls other projects into the graph without
	// making them start-order dependencies.
	OtherProjectsDiscover OtherProjectsMode = "discover"
	// OtherProjectsDepend treats other projects exactly like dependencies.
	OtherProjectsDepend OtherProjectsMode = "depend"
	// OtherProjectsIgnore leaves other projects out of the graph.
	OtherProjectsIgnore OtherProjectsMode = "ignore"
)

// ParseOtherProjectsMode validates a mode string; empty means discover.
func ParseOtherProjectsMode(s string) (OtherProjectsMode, error) {
	switch m := OtherProjectsMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return OtherProjectsDiscover, nil
	case OtherProjectsDiscover, OtherProjectsDepend, OtherProjectsIgnore:
		return m, nil
	default:
		return "", fmt.Errorf("invalid other_projects mode %q (expected discover, depend, or ignore)", s)
	}
}

// Language holds the base image and Dockerfile used when creating projects
// for one language.
type Language struct {
	BaseImage      string `toml:"base_image"`
	BaseDockerfile string `toml:"base_dockerfile"`
}

// Global is the process-wide configuration. It is built once per invocation
// and passed to whatever needs it.
type Global struct {
	Root                string
	Languages           map[string]Language
	DefaultBackend      string
	DefaultVolumes      map[string]string
	SuppressWarnings    bool
	SetProjectPathToCwd bool
	OtherProjects       OtherProjectsMode
}

const DefaultBackend = "docker-compose"

// Default returns the configuration written by `vessel init`.
func Default(root string) *Global {
	return &Global{
		Root: root,
		Languages: map[string]Language{
			"python": {},
			"golang": {},
		},
		DefaultBackend:      DefaultBackend,
		DefaultVolumes:      map[string]string{paths.DefaultSSHKeyDir(): "/root/.ssh"},
		SetProjectPathToCwd: true,
		OtherProjects:       OtherProjectsDiscover,
	}
}

// NewViper returns a viper instance reading VESSEL_* environment variables.
// Callers may bind flags to it before handing it to Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("VESSEL")
	v.AutomaticEnv()
	v.SetDefault("default_backend", DefaultBackend)
	v.SetDefault("set_project_path_to_cwd", true)
	v.SetDefault("other_projects", string(OtherProjectsDiscover))
	return v
}

// Load reads <root>/config.toml. It returns ErrNotInitialized when the root
// or the file does not exist. v may be nil.
func Load(root string, v *viper.Viper) (*Global, error) {
	path := paths.GlobalConfig(root)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if v == nil {
		v = NewViper()
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	mode, err := ParseOtherProjectsMode(v.GetString("other_projects"))
	if err != nil {
		return nil, err
	}

	g := &Global{
		Root:                root,
		Languages:           languagesFrom(doc),
		DefaultBackend:      v.GetString("default_backend"),
		DefaultVolumes:      map[string]string{},
		SuppressWarnings:    v.GetBool("suppress_warnings") || v.GetBool("supress_warnings"),
		SetProjectPathToCwd: v.GetBool("set_project_path_to_cwd"),
		OtherProjects:       mode,
	}
	if vols, ok := doc["default_volumes"].(map[string]any); ok {
		for host, container := range vols {
			g.DefaultVolumes[host] = cast.ToString(container)
		}
	}
	return g, nil
}

// languagesFrom picks every top-level table carrying base_image or
// base_dockerfile, so any language can be added by naming convention.
func languagesFrom(doc map[string]any) map[string]Language {
	out := map[string]Language{}
	for key, val := range doc {
		table, ok := val.(map[string]any)
		if !ok {
			continue
		}
		_, hasImage := table["base_image"]
		_, hasDockerfile := table["base_dockerfile"]
		if !hasImage && !hasDockerfile {
			continue
		}
		out[key] = Language{
			BaseImage:      cast.ToString(table["base_image"]),
			BaseDockerfile: cast.ToString(table["base_dockerfile"]),
		}
	}
	return out
}

// Language looks up a language case-insensitively.
func (g *Global) Language(name string) (Language, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Language{}, false
	}
	for key, lang := range g.Languages {
		if strings.ToLower(key) == name {
			return lang, true
		}
	}
	return Language{}, false
}

// LanguageNames returns the configured language names, sorted.
func (g *Global) LanguageNames() []string {
	names := make([]string, 0, len(g.Languages))
	for k := range g.Languages {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Save writes g to <root>/config.toml.
func (g *Global) Save() error {
	doc := map[string]any{
		"default_backend":         g.DefaultBackend,
		"suppress_warnings":       g.SuppressWarnings,
		"set_project_path_to_cwd": g.SetProjectPathToCwd,
		"other_projects":          string(g.OtherProjects),
		"default_volumes":         g.DefaultVolumes,
	}
	for name, lang := range g.Languages {
		doc[name] = lang
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return store.WriteFileAtomic(paths.GlobalConfig(g.Root), data, 0o644)
}
