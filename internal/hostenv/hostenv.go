// Package hostenv merges the host environment variables declared by every
// project in a graph into the single environment handed to the orchestrator.
//
// Precedence is ambient environment over project records. Two projects
// declaring the same key with different values is a conflict.
package hostenv

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/graph"
	"github.com/cerberus/vessel/internal/vesselerr"
)

// Variables injected after merging.
const (
	RootVar = "VESSEL_ROOT"
	CwdVar  = "VESSEL_CWD"
)

// Options configure a merge.
type Options struct {
	// Root is the vessel storage directory, exported as VESSEL_ROOT.
	Root string
	// Cwd is the invocation directory, exported as VESSEL_CWD.
	Cwd string
	// LookupEnv reads the ambient environment. Defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
	Logger    *zap.Logger
}

// Result is the outcome of a successful merge.
type Result struct {
	// Vars is the merged environment, injected variables included.
	Vars map[string]string
	// Owners maps each configured key to the project that first set it.
	Owners map[string]string
	// Overrides lists, per key, the projects whose value was replaced by
	// the ambient environment.
	Overrides map[string][]string
}

// Merge walks the graph in insertion order and each project's host variables
// in sorted key order. The first project to declare a key owns it; a later
// project declaring a different value is recorded against that key and the
// owner's value is kept. Ambient variables replace configured values whether
// or not the key is in conflict. Conflicts fail the merge with a single
// EnvironmentConflict error naming every key and project.
func Merge(g *graph.Graph, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	res := &Result{
		Vars:      map[string]string{},
		Owners:    map[string]string{},
		Overrides: map[string][]string{},
	}
	configured := map[string]string{}
	conflicts := map[string][]string{}

	for _, rec := range g.Records() {
		host := rec.Environment.Host
		keys := make([]string, 0, len(host))
		for k := range host {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			val := cast.ToString(host[key])
			if prev, ok := configured[key]; ok {
				if prev != val && res.Owners[key] != rec.Name {
					if len(conflicts[key]) == 0 {
						conflicts[key] = []string{res.Owners[key]}
					}
					conflicts[key] = appendUnique(conflicts[key], rec.Name)
				}
			} else {
				configured[key] = val
				res.Owners[key] = rec.Name
				res.Vars[key] = val
			}

			if ambient, ok := lookup(key); ok {
				res.Vars[key] = ambient
				res.Overrides[key] = appendUnique(res.Overrides[key], rec.Name)
			}
		}
	}

	for key, projects := range res.Overrides {
		log.Debug("variable is set in the environment and overrides project settings",
			zap.String("key", key), zap.Strings("projects", projects))
	}

	if err := conflictError(conflicts); err != nil {
		return nil, err
	}

	res.Vars[RootVar] = opts.Root
	res.Vars[CwdVar] = opts.Cwd
	return res, nil
}

// Environ returns base followed by the merged variables as KEY=VALUE pairs in
// sorted key order, ready for exec.Cmd.Env.
func (r *Result) Environ(base []string) []string {
	keys := make([]string, 0, len(r.Vars))
	for k := range r.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(base)+len(keys))
	out = append(out, base...)
	for _, k := range keys {
		out = append(out, k+"="+r.Vars[k])
	}
	return out
}

// Keys returns the merged variable names, sorted.
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.Vars))
	for k := range r.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func conflictError(conflicts map[string][]string) error {
	var keys []string
	for k, projects := range conflicts {
		if len(projects) > 1 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		projects := append([]string(nil), conflicts[k]...)
		sort.Strings(projects)
		parts = append(parts, fmt.Sprintf("%s is defined by %s", k, strings.Join(projects, ", ")))
	}
	return &vesselerr.ConfigError{
		Kind:   vesselerr.ErrEnvironmentConflict,
		Field:  strings.Join(keys, ", "),
		Detail: strings.Join(parts, "; "),
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
