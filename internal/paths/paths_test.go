package paths

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestDefaultRootHonoursVesselHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VESSEL_HOME", dir)

	if got := DefaultRoot(); got != dir {
		t.Fatalf("Expected root %q, got %q", dir, got)
	}
}

func TestDefaultRootFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("VESSEL_HOME", "")
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	want := filepath.Join(home, ".vessel")
	if got := DefaultRoot(); got != want {
		t.Fatalf("Expected root %q, got %q", want, got)
	}
}

func TestProjectPaths(t *testing.T) {
	root := "/srv/vessel"
	tests := []struct {
		got  string
		want string
	}{
		{GlobalConfig(root), "/srv/vessel/config.toml"},
		{ProjectDir(root, "api"), "/srv/vessel/api"},
		{ProjectConfig(root, "api"), "/srv/vessel/api/config.toml"},
		{ProjectCompose(root, "api"), "/srv/vessel/api/docker-compose.yaml"},
		{ProjectLock(root, "api"), "/srv/vessel/api/.docker-compose.lock"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, tt.got)
		}
	}
}
