package sandbox

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/funcforge/internal/funcspec"
)

const mountPoint = "/sandbox"

// DockerRunner runs the harness in a fresh container with no network, a
// read-only filesystem and capped memory, CPU and process count.
type DockerRunner struct {
	Image   string
	Memory  string
	CPUs    string
	Timeout time.Duration
}

func (r *DockerRunner) Run(ctx context.Context, code string, inputs []string) (*Outcome, error) {
	dir, err := prepare(code)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	name := "funcforge-" + uuid.NewString()
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "docker", r.args(name, dir)...)
	out, err := execute(runCtx, cmd, inputs)
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.Canceled) {
		// Killing the docker client does not stop the container.
		r.kill(name)
	}
	return out, err
}

func (r *DockerRunner) args(name, dir string) []string {
	return []string{
		"run", "--rm", "--interactive",
		"--name", name,
		"--network", "none",
		"--memory", r.Memory,
		"--cpus", r.CPUs,
		"--pids-limit", "64",
		"--read-only",
		"--cap-drop", "ALL",
		"--security-opt", "no-new-privileges",
		"--volume", dir + ":" + mountPoint + ":ro",
		"--workdir", mountPoint,
		r.Image,
		"python3", "-I",
		mountPoint + "/" + harnessFile,
		mountPoint + "/" + candidateFile,
		funcspec.EntryPoint,
	}
}

func (r *DockerRunner) kill(name string) {
	if err := exec.Command("docker", "rm", "-f", name).Run(); err != nil {
		log.Warn().Err(err).Str("container", name).Msg("could not remove sandbox container")
	}
}
