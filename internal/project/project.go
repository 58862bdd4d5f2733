// Package project turns raw project records into validated descriptors.
package project

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/spf13/cast"

	"github.com/cerberus/vessel/internal/vesselerr"
)

const (
	// HealthcheckSentinel is the first token of every normalized healthcheck test.
	HealthcheckSentinel = "CMD"
	// Consistency is appended to every rendered volume target.
	Consistency = "delegated"
)

// Healthcheck defaults, applied when the record leaves a field unset.
var (
	DefaultInterval    = 90 * time.Second
	DefaultTimeout     = 30 * time.Second
	DefaultRetries     = 3
	DefaultStartPeriod = time.Duration(0)
)

// Project is a validated, normalized project descriptor.
type Project struct {
	Name           string
	Image          string
	CustomBuild    bool
	Language       string
	DefaultBackend string
	Dir            string
	Command        []string
	Entrypoint     string
	Workdir        string
	Hostdir        string
	NetworkMode    string
	MountSSHKeys   bool
	Caps           []string
	Ports          []Port
	Dependencies   []string
	OtherProjects  []string
	HostEnv        map[string]string
	ContainerEnv   map[string]string
	BuildArgs      map[string]string
	Healthcheck    *Healthcheck

	volumes map[string]string
}

// Port is one published port.
type Port struct {
	HostIP    string
	Host      string
	Container int
	Protocol  string
}

// Healthcheck is a normalized healthcheck with every field set.
type Healthcheck struct {
	Test        []string
	Interval    time.Duration
	Timeout     time.Duration
	Retries     int
	StartPeriod time.Duration
}

// Mount is one host path bound into the container.
type Mount struct {
	Host        string
	Container   string
	Consistency string
}

// New validates rec and builds its descriptor. It fails with a
// MissingRequiredField error when name or image is absent (image may be
// omitted for custom builds), and with InvalidHealthcheck when a healthcheck
// has no test.
func New(rec *Record) (*Project, error) {
	if rec == nil || strings.TrimSpace(rec.Name) == "" {
		return nil, vesselerr.Missing("", "name")
	}
	if strings.TrimSpace(rec.Image) == "" && !rec.CustomBuild {
		return nil, vesselerr.Missing(rec.Name, "image")
	}

	p := &Project{
		Name:           rec.Name,
		Image:          rec.Image,
		CustomBuild:    rec.CustomBuild,
		Language:       rec.Language,
		DefaultBackend: rec.DefaultBackend,
		Dir:            rec.Dir,
		Command:        splitCommand(rec.Command),
		Entrypoint:     rec.Entrypoint,
		Workdir:        rec.Workdir,
		Hostdir:        rec.Hostdir,
		NetworkMode:    rec.NetworkMode,
		MountSSHKeys:   rec.MountSSHKeys,
		Caps:           append([]string(nil), rec.Caps...),
		Dependencies:   append([]string(nil), rec.Dependencies...),
		OtherProjects:  append([]string(nil), rec.OtherProjects...),
		HostEnv:        stringMap(rec.Environment.Host),
		ContainerEnv:   stringMap(rec.Environment.Container),
		BuildArgs:      stringMap(rec.Environment.Build),
		volumes:        maps.Clone(rec.Volumes),
	}
	if p.volumes == nil {
		p.volumes = map[string]string{}
	}

	ports, err := parsePorts(rec.Name, rec.Ports)
	if err != nil {
		return nil, err
	}
	p.Ports = ports

	if rec.Healthcheck != nil {
		hc, err := newHealthcheck(rec.Name, rec.Healthcheck)
		if err != nil {
			return nil, err
		}
		p.Healthcheck = hc
	}
	return p, nil
}

// Volumes returns the explicit volumes plus the implicit hostdir→workdir
// mapping, with every container path suffixed by the consistency mode.
func (p *Project) Volumes() map[string]string {
	out := make(map[string]string, len(p.volumes)+1)
	for host, container := range p.effectiveVolumes() {
		out[host] = container + ":" + Consistency
	}
	return out
}

// Mounts is the structured form of Volumes, sorted by host path. Entries
// without a container path are dropped.
func (p *Project) Mounts() []Mount {
	vols := p.effectiveVolumes()
	hosts := slices.Sorted(maps.Keys(vols))
	out := make([]Mount, 0, len(hosts))
	for _, host := range hosts {
		if vols[host] == "" {
			continue
		}
		out = append(out, Mount{Host: host, Container: vols[host], Consistency: Consistency})
	}
	return out
}

func (p *Project) effectiveVolumes() map[string]string {
	vol := maps.Clone(p.volumes)
	if vol == nil {
		vol = map[string]string{}
	}
	if p.Hostdir != "" && p.Workdir != "" {
		vol[p.Hostdir] = p.Workdir
	}
	return vol
}

// splitCommand splits a string command on whitespace. Quoting is not
// understood; give a list to pass arguments containing spaces.
func splitCommand(v any) []string {
	switch c := v.(type) {
	case nil:
		return nil
	case string:
		return strings.Fields(c)
	case []string:
		return append([]string(nil), c...)
	default:
		return cast.ToStringSlice(c)
	}
}

func stringMap(in map[string]any) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = cast.ToString(v)
	}
	return out
}

func parsePorts(project string, in map[string]any) ([]Port, error) {
	hosts := slices.Sorted(maps.Keys(in))
	var out []Port
	for _, host := range hosts {
		container := cast.ToString(in[host])
		if container == "" {
			return nil, &vesselerr.ConfigError{Kind: vesselerr.ErrInvalidPort, Project: project, Field: "ports." + host, Detail: "container port is empty"}
		}
		mappings, err := nat.ParsePortSpec(host + ":" + container)
		if err != nil {
			return nil, &vesselerr.ConfigError{Kind: vesselerr.ErrInvalidPort, Project: project, Field: "ports." + host, Detail: err.Error()}
		}
		for _, m := range mappings {
			out = append(out, Port{
				HostIP:    m.Binding.HostIP,
				Host:      m.Binding.HostPort,
				Container: m.Port.Int(),
				Protocol:  m.Port.Proto(),
			})
		}
	}
	return out, nil
}

func newHealthcheck(project string, rec *HealthRecord) (*Healthcheck, error) {
	invalid := func(field, detail string) error {
		return &vesselerr.ConfigError{Kind: vesselerr.ErrInvalidHealthcheck, Project: project, Field: "healthcheck." + field, Detail: detail}
	}

	test := splitCommand(rec.Test)
	if len(test) == 0 {
		return nil, invalid("test", "test command is empty")
	}
	if test[0] != HealthcheckSentinel {
		test = append([]string{HealthcheckSentinel}, test...)
	}

	hc := &Healthcheck{
		Test:        test,
		Interval:    DefaultInterval,
		Timeout:     DefaultTimeout,
		Retries:     DefaultRetries,
		StartPeriod: DefaultStartPeriod,
	}
	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"interval", rec.Interval, &hc.Interval},
		{"timeout", rec.Timeout, &hc.Timeout},
		{"start_period", rec.StartPeriod, &hc.StartPeriod},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, invalid(d.field, fmt.Sprintf("bad duration %q", d.raw))
		}
		*d.dst = parsed
	}
	if rec.Retries != nil {
		n, err := cast.ToIntE(rec.Retries)
		if err != nil || n < 0 {
			return nil, invalid("retries", fmt.Sprintf("bad retry count %v", rec.Retries))
		}
		hc.Retries = n
	}
	return hc, nil
}
