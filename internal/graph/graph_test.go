package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerberus/vessel/internal/project"
	"github.com/cerberus/vessel/internal/vesselerr"
)

type memLoader struct {
	records map[string]*project.Record
	loads   map[string]int
}

func newMemLoader(recs ...*project.Record) *memLoader {
	m := &memLoader{records: map[string]*project.Record{}, loads: map[string]int{}}
	for _, r := range recs {
		m.records[r.Name] = r
	}
	return m
}

func (m *memLoader) Load(name string) (*project.Record, error) {
	m.loads[name]++
	rec, ok := m.records[name]
	if !ok {
		return nil, vesselerr.NotFound(name, "/mem/"+name)
	}
	return rec, nil
}

func rec(name string, deps ...string) *project.Record {
	return &project.Record{Name: name, Image: "alpine", Dependencies: deps}
}

func TestDiscoverRootWithDependency(t *testing.T) {
	l := newMemLoader(rec("api", "db"), rec("db"))

	g, err := Discover(context.Background(), l, "api", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"api", "db"}, g.Names())

	db, ok := g.Get("db")
	require.True(t, ok)
	assert.Equal(t, "db", db.Name)
}

func TestDiscoverDepthFirstOrder(t *testing.T) {
	l := newMemLoader(
		rec("api", "db", "cache"),
		rec("db", "volume"),
		rec("volume"),
		rec("cache"),
	)

	g, err := Discover(context.Background(), l, "api", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db", "volume", "cache"}, g.Names())
}

func TestDiscoverDiamondLoadsOnce(t *testing.T) {
	l := newMemLoader(
		rec("api", "auth", "billing"),
		rec("auth", "db"),
		rec("billing", "db"),
		rec("db"),
	)

	g, err := Discover(context.Background(), l, "api", Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, 1, l.loads["db"])
}

func TestDiscoverIsIdempotent(t *testing.T) {
	l := newMemLoader(rec("api", "db", "worker"), rec("db"), rec("worker", "db"))

	first, err := Discover(context.Background(), l, "api", Options{})
	require.NoError(t, err)
	second, err := Discover(context.Background(), l, "api", Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, first.Mapping(), second.Mapping())
}

func TestDiscoverMissingDependencyAborts(t *testing.T) {
	l := newMemLoader(rec("api", "db", "ghost"), rec("db"))

	g, err := Discover(context.Background(), l, "api", Options{})
	require.Error(t, err)
	assert.Nil(t, g)
	assert.True(t, errors.Is(err, vesselerr.ErrProjectNotFound))
	assert.Contains(t, err.Error(), "ghost")
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(context.Background(), newMemLoader(), "api", Options{})
	assert.ErrorIs(t, err, vesselerr.ErrProjectNotFound)
}

func TestDiscoverDetectsCycle(t *testing.T) {
	tests := []struct {
		name  string
		recs  []*project.Record
		path  string
		start string
	}{
		{
			name:  "two node cycle",
			recs:  []*project.Record{rec("a", "b"), rec("b", "a")},
			path:  "a -> b -> a",
			start: "a",
		},
		{
			name:  "self dependency",
			recs:  []*project.Record{rec("a", "a")},
			path:  "a -> a",
			start: "a",
		},
		{
			name:  "cycle below root",
			recs:  []*project.Record{rec("root", "x"), rec("x", "y"), rec("y", "z"), rec("z", "x")},
			path:  "x -> y -> z -> x",
			start: "root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Discover(context.Background(), newMemLoader(tt.recs...), tt.start, Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, vesselerr.ErrCyclicDependency)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestDiscoverIndexesByDeclaredName(t *testing.T) {
	l := newMemLoader(rec("api", "db"))
	l.records["db"] = rec("postgres")

	g, err := Discover(context.Background(), l, "api", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "postgres"}, g.Names())
	_, ok := g.Get("db")
	assert.False(t, ok)
}

func TestDiscoverLastWriteWins(t *testing.T) {
	l := newMemLoader(rec("api", "db-v1", "db-v2"))
	first := rec("db")
	first.Image = "postgres:15"
	second := rec("db")
	second.Image = "postgres:16"
	l.records["db-v1"] = first
	l.records["db-v2"] = second

	g, err := Discover(context.Background(), l, "api", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db"}, g.Names())
	db, _ := g.Get("db")
	assert.Equal(t, "postgres:16", db.Image)
}

func TestDiscoverOtherProjects(t *testing.T) {
	api := rec("api", "db")
	api.OtherProjects = []string{"tools"}
	l := newMemLoader(api, rec("db"), rec("tools"))

	g, err := Discover(context.Background(), l, "api", Options{FollowOtherProjects: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db", "tools"}, g.Names())

	g, err = Discover(context.Background(), l, "api", Options{FollowOtherProjects: false})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db"}, g.Names())
}

func TestDiscoverHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, newMemLoader(rec("api")), "api", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
