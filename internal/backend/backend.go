// Package backend hands a rendered compose file to the container orchestrator.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Backend identifiers accepted in default_backend.
const (
	DockerCompose = "docker-compose"
	Docker        = "docker"
)

var ErrUnknownBackend = errors.New("unknown backend")

// Compose runs orchestrator verbs against one compose file.
type Compose struct {
	// Program is the orchestrator invocation preceding "-f <file>".
	Program []string
	File    string
	// Env is the full process environment; nil inherits the caller's.
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger

	run func(*exec.Cmd) error
}

// New returns a runner for the backend id, wired to the process stdio.
func New(id, file string) (*Compose, error) {
	var program []string
	switch strings.TrimSpace(id) {
	case DockerCompose, "":
		program = []string{"docker-compose"}
	case Docker:
		program = []string{"docker", "compose"}
	default:
		return nil, fmt.Errorf("%w %q (expected %s or %s)", ErrUnknownBackend, id, DockerCompose, Docker)
	}
	return &Compose{
		Program: program,
		File:    file,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, nil
}

// Command builds the orchestrator command for verb without starting it.
func (c *Compose) Command(ctx context.Context, verb string, args ...string) *exec.Cmd {
	argv := append([]string(nil), c.Program[1:]...)
	argv = append(argv, "-f", c.File, verb)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, c.Program[0], argv...)
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd
}

// Up recreates and starts every service in the background.
func (c *Compose) Up(ctx context.Context) error {
	return c.exec(c.Command(ctx, "up", "--force-recreate", "-d"))
}

// Run starts a one-off container for service. An empty workdir keeps the
// service's own working directory.
func (c *Compose) Run(ctx context.Context, service, workdir string, command []string) error {
	var args []string
	if workdir != "" {
		args = append(args, "-w", workdir)
	}
	args = append(args, service)
	args = append(args, command...)
	return c.exec(c.Command(ctx, "run", args...))
}

// Exec runs command inside the running container of service.
func (c *Compose) Exec(ctx context.Context, service string, command []string) error {
	args := append([]string{service}, command...)
	return c.exec(c.Command(ctx, "exec", args...))
}

// Logs prints service logs, following them when follow is set.
func (c *Compose) Logs(ctx context.Context, follow bool) error {
	var args []string
	if follow {
		args = append(args, "-f")
	}
	return c.exec(c.Command(ctx, "logs", args...))
}

// Kill stops every service immediately.
func (c *Compose) Kill(ctx context.Context) error {
	return c.exec(c.Command(ctx, "kill"))
}

func (c *Compose) exec(cmd *exec.Cmd) error {
	if c.Logger != nil {
		c.Logger.Debug("running orchestrator", zap.Strings("argv", cmd.Args))
	}
	run := c.run
	if run == nil {
		run = (*exec.Cmd).Run
	}
	if err := run(cmd); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(cmd.Args, " "), err)
	}
	return nil
}
