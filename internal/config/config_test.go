package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNotInitialized(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestDefaultSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	g := Default(root)
	g.DefaultVolumes = map[string]string{"/Users/Dev/.ssh": "/root/.ssh"}
	g.Languages["rust"] = Language{BaseImage: "rust:1.80", BaseDockerfile: "/tmp/rust.Dockerfile"}
	require.NoError(t, g.Save())

	loaded, err := Load(root, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBackend, loaded.DefaultBackend)
	assert.True(t, loaded.SetProjectPathToCwd)
	assert.False(t, loaded.SuppressWarnings)
	assert.Equal(t, OtherProjectsDiscover, loaded.OtherProjects)
	assert.Equal(t, map[string]string{"/Users/Dev/.ssh": "/root/.ssh"}, loaded.DefaultVolumes)
	assert.Equal(t, []string{"golang", "python", "rust"}, loaded.LanguageNames())

	rust, ok := loaded.Language("Rust")
	require.True(t, ok)
	assert.Equal(t, "rust:1.80", rust.BaseImage)
}

func TestLoadAcceptsMisspeltSuppressWarnings(t *testing.T) {
	root := t.TempDir()
	body := `
default_backend = "docker-compose"
supress_warnings = true
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.toml"), []byte(body), 0o644))

	g, err := Load(root, nil)
	require.NoError(t, err)
	assert.True(t, g.SuppressWarnings)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Default(root).Save())
	t.Setenv("VESSEL_DEFAULT_BACKEND", "docker")
	t.Setenv("VESSEL_OTHER_PROJECTS", "depend")

	g, err := Load(root, nil)
	require.NoError(t, err)
	assert.Equal(t, "docker", g.DefaultBackend)
	assert.Equal(t, OtherProjectsDepend, g.OtherProjects)
}

func TestLoadRejectsUnknownOtherProjectsMode(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.toml"), []byte(`other_projects = "sometimes"`), 0o644))

	_, err := Load(root, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sometimes")
}

func TestParseOtherProjectsMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OtherProjectsMode
		wantErr bool
	}{
		{in: "", want: OtherProjectsDiscover},
		{in: "Discover", want: OtherProjectsDiscover},
		{in: "depend", want: OtherProjectsDepend},
		{in: " ignore ", want: OtherProjectsIgnore},
		{in: "both", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseOtherProjectsMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
