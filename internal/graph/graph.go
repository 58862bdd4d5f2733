// Package graph discovers every project reachable from a root project through
// its declared dependency edges.
package graph

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/project"
	"github.com/cerberus/vessel/internal/vesselerr"
)

// Loader fetches a project record by its directory name.
type Loader interface {
	Load(name string) (*project.Record, error)
}

// Options tune discovery.
type Options struct {
	// FollowOtherProjects adds other_projects edges to the traversal.
	FollowOtherProjects bool
	Logger              *zap.Logger
}

// Graph is the set of discovered records keyed by their declared name, in
// the order they were first inserted.
type Graph struct {
	Root    string
	order   []string
	records map[string]*project.Record
}

func newGraph(root string) *Graph {
	return &Graph{Root: root, records: map[string]*project.Record{}}
}

// Len returns the number of distinct project names.
func (g *Graph) Len() int { return len(g.order) }

// Names returns project names in insertion order.
func (g *Graph) Names() []string { return append([]string(nil), g.order...) }

// Get returns the record stored under a declared name.
func (g *Graph) Get(name string) (*project.Record, bool) {
	rec, ok := g.records[name]
	return rec, ok
}

// Records returns the records in insertion order.
func (g *Graph) Records() []*project.Record {
	out := make([]*project.Record, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.records[name])
	}
	return out
}

// Mapping returns a copy of the name → record index.
func (g *Graph) Mapping() map[string]*project.Record {
	out := make(map[string]*project.Record, len(g.records))
	for k, v := range g.records {
		out[k] = v
	}
	return out
}

// put indexes rec under its declared name. A name already present is
// overwritten in place, keeping its original position.
func (g *Graph) put(rec *project.Record) (replaced bool) {
	if _, ok := g.records[rec.Name]; ok {
		g.records[rec.Name] = rec
		return true
	}
	g.order = append(g.order, rec.Name)
	g.records[rec.Name] = rec
	return false
}

type frame struct {
	key   string
	edges []string
	next  int
}

// Discover walks the dependency graph from root depth-first using an
// explicit stack. Each name is loaded once; a name that reappears on the
// current path is a cycle and fails with CyclicDependency. Any load failure
// aborts the whole walk.
func Discover(ctx context.Context, l Loader, root string, opts Options) (*Graph, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	g := newGraph(root)
	visited := map[string]bool{}
	onPath := map[string]bool{}
	var stack []*frame

	enter := func(key string) error {
		if onPath[key] {
			return cycleError(stack, key)
		}
		if visited[key] {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := l.Load(key)
		if err != nil {
			return err
		}
		if rec.Name == "" {
			return vesselerr.Missing(key, "name")
		}
		if rec.Name != key {
			log.Warn("project name does not match its directory",
				zap.String("directory", key), zap.String("name", rec.Name))
		}
		if g.put(rec) {
			log.Debug("project redefined during discovery", zap.String("name", rec.Name), zap.String("directory", key))
		}

		visited[key] = true
		onPath[key] = true
		stack = append(stack, &frame{key: key, edges: rec.Edges(opts.FollowOtherProjects)})
		return nil
	}

	if err := enter(root); err != nil {
		return nil, err
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.edges) {
			dep := top.edges[top.next]
			top.next++
			if err := enter(dep); err != nil {
				return nil, fmt.Errorf("resolving %s: %w", top.key, err)
			}
			continue
		}
		onPath[top.key] = false
		stack = stack[:len(stack)-1]
	}

	log.Debug("discovered projects", zap.String("root", root), zap.Strings("projects", g.order))
	return g, nil
}

func cycleError(stack []*frame, key string) error {
	start := 0
	for i, f := range stack {
		if f.key == key {
			start = i
			break
		}
	}
	var parts []string
	for _, f := range stack[start:] {
		parts = append(parts, f.key)
	}
	parts = append(parts, key)
	return &vesselerr.ConfigError{
		Kind:    vesselerr.ErrCyclicDependency,
		Project: key,
		Detail:  strings.Join(parts, " -> "),
	}
}
