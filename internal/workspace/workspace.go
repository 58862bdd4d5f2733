// Package workspace runs the full pipeline behind every orchestrator command:
// discover the graph, merge host variables, build descriptors, render and
// write the compose file.
package workspace

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/backend"
	"github.com/cerberus/vessel/internal/compose"
	"github.com/cerberus/vessel/internal/config"
	"github.com/cerberus/vessel/internal/graph"
	"github.com/cerberus/vessel/internal/hostenv"
	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/project"
	"github.com/cerberus/vessel/internal/store"
	"github.com/cerberus/vessel/internal/vesselerr"
)

// Options configure Prepare.
type Options struct {
	Global *config.Global
	// Cwd is the invocation directory.
	Cwd string
	// LookupEnv reads the ambient environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// DryRun skips writing the compose file.
	DryRun bool
	Logger *zap.Logger
}

// Plan is everything needed to invoke the orchestrator for one root project.
type Plan struct {
	Project  string
	Graph    *graph.Graph
	Env      *hostenv.Result
	Projects []*project.Project
	Compose  []byte
	// File is the compose file path; empty on a dry run.
	File string

	global *config.Global
	logger *zap.Logger
}

// Prepare resolves name and renders its compose file. Nothing is written when
// any step fails.
func Prepare(ctx context.Context, s *store.Store, name string, opts Options) (*Plan, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	g := opts.Global
	if g == nil {
		g = config.Default(s.Root())
	}
	if !s.Exists(name) {
		return nil, vesselerr.NotFound(name, paths.ProjectConfig(s.Root(), name))
	}

	gr, err := graph.Discover(ctx, s, name, graph.Options{
		FollowOtherProjects: g.OtherProjects != config.OtherProjectsIgnore,
		Logger:              log,
	})
	if err != nil {
		return nil, err
	}
	if rec, ok := gr.Get(name); ok && rec.UseCwd && opts.Cwd != "" {
		log.Debug("using invocation directory as hostdir", zap.String("project", name), zap.String("hostdir", opts.Cwd))
		rec.Hostdir = opts.Cwd
	}

	env, err := hostenv.Merge(gr, hostenv.Options{
		Root:      s.Root(),
		Cwd:       opts.Cwd,
		LookupEnv: opts.LookupEnv,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	for _, key := range env.Keys() {
		log.Debug("environment", zap.String("key", key), zap.String("value", env.Vars[key]))
	}

	projects, err := compose.Build(gr)
	if err != nil {
		return nil, err
	}
	data, err := compose.Render(projects, compose.RenderOptions{
		ProjectName:                 name,
		SSHKeyDir:                   paths.DefaultSSHKeyDir(),
		OtherProjectsAsDependencies: g.OtherProjects == config.OtherProjectsDepend,
		Logger:                      log,
	})
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Project:  name,
		Graph:    gr,
		Env:      env,
		Projects: projects,
		Compose:  data,
		global:   g,
		logger:   log,
	}
	if opts.DryRun {
		return plan, nil
	}
	plan.File, err = compose.WriteFile(ctx, s.Root(), name, data)
	if err != nil {
		return nil, err
	}
	log.Debug("wrote compose file", zap.String("path", plan.File), zap.Int("services", len(projects)))
	return plan, nil
}

// Root returns the descriptor of the root project.
func (p *Plan) Root() *project.Project {
	for _, proj := range p.Projects {
		if proj.Name == p.Project {
			return proj
		}
	}
	return nil
}

// Backend returns an orchestrator runner for the plan's compose file,
// choosing the root project's default_backend over the global one. The merged
// environment is appended to the process environment.
func (p *Plan) Backend() (*backend.Compose, error) {
	id := p.global.DefaultBackend
	if root := p.Root(); root != nil && root.DefaultBackend != "" {
		id = root.DefaultBackend
	}
	b, err := backend.New(id, p.File)
	if err != nil {
		return nil, err
	}
	b.Env = p.Env.Environ(os.Environ())
	b.Logger = p.logger
	return b, nil
}
