package project

// Record is a project's on-disk configuration as decoded from its
// config.toml. Fields are loosely typed where the file format allows more
// than one shape (command as string or list, host variables of any scalar
// type); New validates and normalizes them.
type Record struct {
	Name           string            `toml:"name" json:"name" yaml:"name"`
	Image          string            `toml:"image" json:"image" yaml:"image"`
	CustomBuild    bool              `toml:"custom_build" json:"custom_build" yaml:"custom_build"`
	Language       string            `toml:"language,omitempty" json:"language,omitempty" yaml:"language,omitempty"`
	UseCwd         bool              `toml:"use_cwd" json:"use_cwd" yaml:"use_cwd"`
	DefaultBackend string            `toml:"default_backend,omitempty" json:"default_backend,omitempty" yaml:"default_backend,omitempty"`
	Command        any               `toml:"command,omitempty" json:"command,omitempty" yaml:"command,omitempty"`
	Entrypoint     string            `toml:"entrypoint,omitempty" json:"entrypoint,omitempty" yaml:"entrypoint,omitempty"`
	Workdir        string            `toml:"workdir,omitempty" json:"workdir,omitempty" yaml:"workdir,omitempty"`
	Hostdir        string            `toml:"hostdir,omitempty" json:"hostdir,omitempty" yaml:"hostdir,omitempty"`
	NetworkMode    string            `toml:"network_mode,omitempty" json:"network_mode,omitempty" yaml:"network_mode,omitempty"`
	MountSSHKeys   bool              `toml:"mount_ssh_keys" json:"mount_ssh_keys" yaml:"mount_ssh_keys"`
	Caps           []string          `toml:"caps" json:"caps" yaml:"caps"`
	Ports          map[string]any    `toml:"ports" json:"ports" yaml:"ports"`
	Volumes        map[string]string `toml:"volumes" json:"volumes" yaml:"volumes"`
	Dependencies   []string          `toml:"dependencies" json:"dependencies" yaml:"dependencies"`
	OtherProjects  []string          `toml:"other_projects" json:"other_projects" yaml:"other_projects"`
	Environment    EnvironmentRecord `toml:"environment" json:"environment" yaml:"environment"`
	Healthcheck    *HealthRecord     `toml:"healthcheck,omitempty" json:"healthcheck,omitempty" yaml:"healthcheck,omitempty"`

	// Dir is the project's storage directory; set by the store, never persisted.
	Dir string `toml:"-" json:"-" yaml:"-"`
}

// EnvironmentRecord groups the three variable namespaces of a project.
type EnvironmentRecord struct {
	Host      map[string]any `toml:"host" json:"host" yaml:"host"`
	Container map[string]any `toml:"container" json:"container" yaml:"container"`
	Build     map[string]any `toml:"build,omitempty" json:"build,omitempty" yaml:"build,omitempty"`
}

// HealthRecord is the raw healthcheck table. Test may be a string or a list.
type HealthRecord struct {
	Test        any    `toml:"test" json:"test" yaml:"test"`
	Interval    string `toml:"interval,omitempty" json:"interval,omitempty" yaml:"interval,omitempty"`
	Timeout     string `toml:"timeout,omitempty" json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Retries     any    `toml:"retries,omitempty" json:"retries,omitempty" yaml:"retries,omitempty"`
	StartPeriod string `toml:"start_period,omitempty" json:"start_period,omitempty" yaml:"start_period,omitempty"`
}

// Edges returns the names a record points at: its dependencies, followed by
// its other projects when withOthers is set.
func (r *Record) Edges(withOthers bool) []string {
	out := append([]string(nil), r.Dependencies...)
	if withOthers {
		out = append(out, r.OtherProjects...)
	}
	return out
}
