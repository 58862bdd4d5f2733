package compose

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	composetypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberus/vessel/internal/graph"
	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/project"
	"github.com/cerberus/vessel/internal/vesselerr"
)

type loader map[string]*project.Record

func (l loader) Load(name string) (*project.Record, error) {
	if rec, ok := l[name]; ok {
		return rec, nil
	}
	return nil, vesselerr.NotFound(name, "")
}

func discover(t *testing.T, root string, recs ...*project.Record) *graph.Graph {
	t.Helper()
	l := loader{}
	for _, r := range recs {
		l[r.Name] = r
	}
	g, err := graph.Discover(context.Background(), l, root, graph.Options{FollowOtherProjects: true})
	require.NoError(t, err)
	return g
}

func apiAndDB() []*project.Record {
	return []*project.Record{
		{
			Name:         "api",
			Image:        "golang:1.25",
			Command:      "go run ./cmd/api",
			Hostdir:      "/src/api",
			Workdir:      "/api",
			Ports:        map[string]any{"8080": 80},
			Dependencies: []string{"db"},
			Environment: project.EnvironmentRecord{
				Host:      map[string]any{"PORT": 8080},
				Container: map[string]any{"DSN": "postgres://$DB_HOST/app"},
			},
		},
		{
			Name:        "db",
			Image:       "postgres:16",
			Healthcheck: &project.HealthRecord{Test: "pg_isready"},
		},
	}
}

func TestBuildFollowsGraphOrder(t *testing.T) {
	g := discover(t, "api", apiAndDB()...)

	projects, err := Build(g)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "api", projects[0].Name)
	assert.Equal(t, "db", projects[1].Name)
}

func TestBuildAbortsOnInvalidRecord(t *testing.T) {
	recs := apiAndDB()
	recs[1].Image = ""
	g := discover(t, "api", recs...)

	projects, err := Build(g)
	require.Error(t, err)
	assert.Nil(t, projects)
	assert.True(t, errors.Is(err, vesselerr.ErrMissingRequiredField))
	assert.Contains(t, err.Error(), "db")
}

func TestDocument(t *testing.T) {
	projects, err := Build(discover(t, "api", apiAndDB()...))
	require.NoError(t, err)

	doc, err := Document(projects, RenderOptions{ProjectName: "api"})
	require.NoError(t, err)
	assert.Equal(t, "api", doc.Name)
	require.Len(t, doc.Services, 2)

	api := doc.Services["api"]
	assert.Equal(t, "golang:1.25", api.Image)
	assert.Equal(t, composetypes.ShellCommand{"go", "run", "./cmd/api"}, api.Command)
	assert.Equal(t, "/api", api.WorkingDir)

	require.NotNil(t, api.Environment["DSN"])
	assert.Equal(t, "postgres://${DB_HOST}/app", *api.Environment["DSN"])

	require.Len(t, api.Ports, 1)
	assert.Equal(t, uint32(80), api.Ports[0].Target)
	assert.Equal(t, "8080", api.Ports[0].Published)
	assert.Equal(t, "tcp", api.Ports[0].Protocol)

	require.Len(t, api.Volumes, 1)
	assert.Equal(t, composetypes.ServiceVolumeConfig{
		Type:        composetypes.VolumeTypeBind,
		Source:      "/src/api",
		Target:      "/api",
		Consistency: "delegated",
	}, api.Volumes[0])

	require.Contains(t, api.DependsOn, "db")
	assert.Equal(t, composetypes.ServiceConditionHealthy, api.DependsOn["db"].Condition)

	db := doc.Services["db"]
	require.NotNil(t, db.HealthCheck)
	assert.Equal(t, composetypes.HealthCheckTest{"CMD", "pg_isready"}, db.HealthCheck.Test)
	assert.Equal(t, composetypes.Duration(90*time.Second), *db.HealthCheck.Interval)
	assert.Equal(t, uint64(3), *db.HealthCheck.Retries)
	assert.Empty(t, db.DependsOn)
}

func TestDocumentOtherProjects(t *testing.T) {
	recs := apiAndDB()
	recs[0].OtherProjects = []string{"tools"}
	recs = append(recs, &project.Record{Name: "tools", Image: "alpine"})
	projects, err := Build(discover(t, "api", recs...))
	require.NoError(t, err)

	doc, err := Document(projects, RenderOptions{})
	require.NoError(t, err)
	assert.Len(t, doc.Services, 3)
	assert.NotContains(t, doc.Services["api"].DependsOn, "tools")

	doc, err = Document(projects, RenderOptions{OtherProjectsAsDependencies: true})
	require.NoError(t, err)
	require.Contains(t, doc.Services["api"].DependsOn, "tools")
	assert.Equal(t, composetypes.ServiceConditionStarted, doc.Services["api"].DependsOn["tools"].Condition)
}

func TestDocumentSSHKeysAndCustomBuild(t *testing.T) {
	rec := &project.Record{
		Name:         "tool",
		CustomBuild:  true,
		MountSSHKeys: true,
		Dir:          "/home/dev/.vessel/tool",
		Environment: project.EnvironmentRecord{
			Build: map[string]any{"GO_VERSION": "1.25"},
		},
	}
	projects, err := Build(discover(t, "tool", rec))
	require.NoError(t, err)

	doc, err := Document(projects, RenderOptions{SSHKeyDir: "/home/dev/.ssh"})
	require.NoError(t, err)

	svc := doc.Services["tool"]
	require.NotNil(t, svc.Build)
	assert.Equal(t, "/home/dev/.vessel/tool", svc.Build.Context)
	assert.Equal(t, "Dockerfile", svc.Build.Dockerfile)
	require.NotNil(t, svc.Build.Args["GO_VERSION"])
	assert.Equal(t, "1.25", *svc.Build.Args["GO_VERSION"])

	require.Len(t, svc.Volumes, 1)
	assert.Equal(t, "/home/dev/.ssh", svc.Volumes[0].Source)
	assert.Equal(t, SSHTarget, svc.Volumes[0].Target)
}

func TestRenderContainsEveryService(t *testing.T) {
	projects, err := Build(discover(t, "api", apiAndDB()...))
	require.NoError(t, err)

	data, err := Render(projects, RenderOptions{ProjectName: "api"})
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "services:")
	assert.Contains(t, out, "api:")
	assert.Contains(t, out, "db:")
	assert.Contains(t, out, "depends_on:")
	assert.Contains(t, out, "image: postgres:16")
	assert.NotContains(t, out, ":delegated")
}

func TestWriteFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "api"), 0o755))

	path, err := WriteFile(context.Background(), root, "api", []byte("services: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, paths.ProjectCompose(root, "api"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "services: {}\n", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "api"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{paths.ComposeFile, paths.LockFile}, names)
}
