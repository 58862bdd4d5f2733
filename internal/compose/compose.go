// Package compose builds project descriptors from a resolved graph and renders
// them into a compose-spec document for the orchestrator.
package compose

import (
	"fmt"
	"strings"
	"time"

	composetypes "github.com/compose-spec/compose-go/v2/types"
	"go.uber.org/zap"

	"github.com/cerberus/vessel/internal/escape"
	"github.com/cerberus/vessel/internal/graph"
	"github.com/cerberus/vessel/internal/project"
)

// SSHTarget is where mount_ssh_keys binds the host key directory.
const SSHTarget = "/root/.ssh"

// Build constructs one descriptor per graph entry, in graph order. The first
// invalid record aborts the build.
func Build(g *graph.Graph) ([]*project.Project, error) {
	out := make([]*project.Project, 0, g.Len())
	for _, rec := range g.Records() {
		p, err := project.New(rec)
		if err != nil {
			return nil, fmt.Errorf("building project %s: %w", rec.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// RenderOptions tune rendering.
type RenderOptions struct {
	// ProjectName is the compose project name, usually the root project.
	ProjectName string
	// SSHKeyDir is bound to SSHTarget for projects with mount_ssh_keys.
	SSHKeyDir string
	// OtherProjectsAsDependencies adds other_projects to depends_on.
	OtherProjectsAsDependencies bool
	Logger                      *zap.Logger
}

// Render converts descriptors into a compose document. Container environment
// values are rewritten so $VAR references resolve against the environment the
// orchestrator is started with.
func Render(projects []*project.Project, opts RenderOptions) ([]byte, error) {
	doc, err := Document(projects, opts)
	if err != nil {
		return nil, err
	}
	data, err := doc.MarshalYAML()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compose document: %w", err)
	}
	return data, nil
}

// Document is Render without the final marshalling step.
func Document(projects []*project.Project, opts RenderOptions) (*composetypes.Project, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	known := make(map[string]*project.Project, len(projects))
	for _, p := range projects {
		if _, dup := known[p.Name]; dup {
			return nil, fmt.Errorf("duplicate service %q", p.Name)
		}
		known[p.Name] = p
	}

	doc := &composetypes.Project{
		Name:     opts.ProjectName,
		Services: composetypes.Services{},
	}
	for _, p := range projects {
		svc := service(p, opts)

		deps := append([]string(nil), p.Dependencies...)
		if opts.OtherProjectsAsDependencies {
			deps = append(deps, p.OtherProjects...)
		}
		for _, dep := range deps {
			target, ok := known[dep]
			if !ok {
				log.Warn("dependency is not a service in this document",
					zap.String("project", p.Name), zap.String("dependency", dep))
				continue
			}
			if svc.DependsOn == nil {
				svc.DependsOn = composetypes.DependsOnConfig{}
			}
			condition := composetypes.ServiceConditionStarted
			if target.Healthcheck != nil {
				condition = composetypes.ServiceConditionHealthy
			}
			svc.DependsOn[dep] = composetypes.ServiceDependency{Condition: condition, Required: true}
		}

		doc.Services[p.Name] = svc
	}
	return doc, nil
}

func service(p *project.Project, opts RenderOptions) composetypes.ServiceConfig {
	svc := composetypes.ServiceConfig{
		Name:        p.Name,
		Image:       p.Image,
		WorkingDir:  p.Workdir,
		NetworkMode: p.NetworkMode,
		CapAdd:      append([]string(nil), p.Caps...),
	}
	if len(p.Command) > 0 {
		svc.Command = composetypes.ShellCommand(p.Command)
	}
	if ep := strings.Fields(p.Entrypoint); len(ep) > 0 {
		svc.Entrypoint = composetypes.ShellCommand(ep)
	}

	if len(p.ContainerEnv) > 0 {
		svc.Environment = composetypes.MappingWithEquals{}
		for k, v := range p.ContainerEnv {
			val := escape.Interpolate(v)
			svc.Environment[k] = &val
		}
	}

	if p.CustomBuild {
		svc.Build = &composetypes.BuildConfig{
			Context:    p.Dir,
			Dockerfile: "Dockerfile",
		}
		if len(p.BuildArgs) > 0 {
			svc.Build.Args = composetypes.MappingWithEquals{}
			for k, v := range p.BuildArgs {
				val := v
				svc.Build.Args[k] = &val
			}
		}
	}

	for _, port := range p.Ports {
		svc.Ports = append(svc.Ports, composetypes.ServicePortConfig{
			HostIP:    port.HostIP,
			Published: port.Host,
			Target:    uint32(port.Container),
			Protocol:  port.Protocol,
		})
	}

	for _, m := range p.Mounts() {
		svc.Volumes = append(svc.Volumes, bind(m.Host, m.Container, m.Consistency))
	}
	if p.MountSSHKeys && opts.SSHKeyDir != "" {
		svc.Volumes = append(svc.Volumes, bind(opts.SSHKeyDir, SSHTarget, project.Consistency))
	}

	if hc := p.Healthcheck; hc != nil {
		retries := uint64(hc.Retries)
		svc.HealthCheck = &composetypes.HealthCheckConfig{
			Test:        composetypes.HealthCheckTest(hc.Test),
			Interval:    duration(hc.Interval),
			Timeout:     duration(hc.Timeout),
			StartPeriod: duration(hc.StartPeriod),
			Retries:     &retries,
		}
	}
	return svc
}

func bind(source, target, consistency string) composetypes.ServiceVolumeConfig {
	return composetypes.ServiceVolumeConfig{
		Type:        composetypes.VolumeTypeBind,
		Source:      source,
		Target:      target,
		Consistency: consistency,
	}
}

func duration(d time.Duration) *composetypes.Duration {
	cd := composetypes.Duration(d)
	return &cd
}
