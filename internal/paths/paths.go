package paths

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	ConfigFile  = "config.toml"
	ComposeFile = "docker-compose.yaml"
	LockFile    = ".docker-compose.lock"
	Dockerfile  = "Dockerfile"
)

// DefaultRoot is where vessel keeps the global config and every project
// directory. $VESSEL_HOME overrides ~/.vessel.
func DefaultRoot() string {
	if x := os.Getenv("VESSEL_HOME"); x != "" {
		if expanded, err := homedir.Expand(x); err == nil {
			return expanded
		}
		return x
	}
	home, _ := homedir.Dir()
	return filepath.Join(home, ".vessel")
}

// DefaultSSHKeyDir is the host directory mounted for projects with
// mount_ssh_keys set.
func DefaultSSHKeyDir() string {
	home, _ := homedir.Dir()
	return filepath.Join(home, ".ssh")
}

func GlobalConfig(root string) string            { return filepath.Join(root, ConfigFile) }
func ProjectDir(root, project string) string     { return filepath.Join(root, project) }
func ProjectConfig(root, project string) string  { return filepath.Join(root, project, ConfigFile) }
func ProjectCompose(root, project string) string { return filepath.Join(root, project, ComposeFile) }
func ProjectLock(root, project string) string    { return filepath.Join(root, project, LockFile) }
