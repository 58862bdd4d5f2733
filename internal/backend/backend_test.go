package backend

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(c *Compose) *[][]string {
	var calls [][]string
	c.run = func(cmd *exec.Cmd) error {
		calls = append(calls, cmd.Args)
		return nil
	}
	return &calls
}

func TestNewBackends(t *testing.T) {
	c, err := New(DockerCompose, "/v/api/docker-compose.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"docker-compose"}, c.Program)

	c, err = New(Docker, "/v/api/docker-compose.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"docker", "compose"}, c.Program)

	_, err = New("podman", "x")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestVerbs(t *testing.T) {
	const file = "/v/api/docker-compose.yaml"
	ctx := context.Background()

	tests := []struct {
		name string
		call func(c *Compose) error
		want []string
	}{
		{
			name: "up",
			call: func(c *Compose) error { return c.Up(ctx) },
			want: []string{"docker-compose", "-f", file, "up", "--force-recreate", "-d"},
		},
		{
			name: "run with workdir",
			call: func(c *Compose) error { return c.Run(ctx, "api", "/api", []string{"go", "test", "./..."}) },
			want: []string{"docker-compose", "-f", file, "run", "-w", "/api", "api", "go", "test", "./..."},
		},
		{
			name: "run without workdir",
			call: func(c *Compose) error { return c.Run(ctx, "db", "", nil) },
			want: []string{"docker-compose", "-f", file, "run", "db"},
		},
		{
			name: "exec",
			call: func(c *Compose) error { return c.Exec(ctx, "api", []string{"sh"}) },
			want: []string{"docker-compose", "-f", file, "exec", "api", "sh"},
		},
		{
			name: "logs",
			call: func(c *Compose) error { return c.Logs(ctx, true) },
			want: []string{"docker-compose", "-f", file, "logs", "-f"},
		},
		{
			name: "kill",
			call: func(c *Compose) error { return c.Kill(ctx) },
			want: []string{"docker-compose", "-f", file, "kill"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(DockerCompose, file)
			require.NoError(t, err)
			calls := recorder(c)

			require.NoError(t, tt.call(c))
			require.Len(t, *calls, 1)
			assert.Equal(t, tt.want, (*calls)[0])
		})
	}
}

func TestDockerPluginArgs(t *testing.T) {
	c, err := New(Docker, "f.yaml")
	require.NoError(t, err)
	cmd := c.Command(context.Background(), "kill")
	assert.Equal(t, []string{"docker", "compose", "-f", "f.yaml", "kill"}, cmd.Args)
}

func TestCommandCarriesEnv(t *testing.T) {
	c, err := New(DockerCompose, "f.yaml")
	require.NoError(t, err)
	c.Env = []string{"PATH=/bin", "PORT=8080"}

	cmd := c.Command(context.Background(), "up")
	assert.Equal(t, []string{"PATH=/bin", "PORT=8080"}, cmd.Env)
}

func TestExecWrapsFailure(t *testing.T) {
	c, err := New(DockerCompose, "f.yaml")
	require.NoError(t, err)
	boom := errors.New("exit status 1")
	c.run = func(*exec.Cmd) error { return boom }

	err = c.Kill(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "docker-compose -f f.yaml kill")
}
