package sandbox

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/forge-ai/funcforge/internal/funcspec"
)

// LocalRunner runs the harness with a Python interpreter on the host. The
// code gets the privileges of this process; only the time limit applies.
type LocalRunner struct {
	Python  string
	Timeout time.Duration
}

func (r *LocalRunner) Run(ctx context.Context, code string, inputs []string) (*Outcome, error) {
	dir, err := prepare(code)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	// -I: ignore PYTHON* env vars and the user site directory.
	cmd := exec.CommandContext(runCtx, r.Python, "-I",
		filepath.Join(dir, harnessFile),
		filepath.Join(dir, candidateFile),
		funcspec.EntryPoint,
	)
	cmd.Dir = dir
	return execute(runCtx, cmd, inputs)
}
