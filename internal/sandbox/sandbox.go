// Package sandbox executes generated Python code out of process, either as a
// local interpreter subprocess or inside a throwaway Docker container, and
// reports what the entry point returned for each input.
package sandbox

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed harness.py
var harness []byte

const (
	harnessFile   = "harness.py"
	candidateFile = "candidate.py"

	// waitDelay bounds how long Run waits for pipes held open by processes
	// that outlived the harness.
	waitDelay = time.Second
)

// ErrTimeout is returned when the code did not finish within the runner's
// time limit.
var ErrTimeout = errors.New("execution timed out")

// Runner executes code once and calls its entry point with every input in
// order.
type Runner interface {
	Run(ctx context.Context, code string, inputs []string) (*Outcome, error)
}

// Outcome is what the harness reports. At most one of MissingEntryPoint,
// LoadError and Results is set.
type Outcome struct {
	MissingEntryPoint bool     `json:"missing_entry_point"`
	LoadError         *string  `json:"load_error"`
	Results           []Result `json:"results"`
}

// Result is the entry point's behaviour for one input. Error is set when it
// raised. NonString marks a return value that was not a str; Output then
// holds its repr.
type Result struct {
	Output    string  `json:"output"`
	Error     *string `json:"error"`
	NonString bool    `json:"non_string"`
}

// prepare writes the harness and the candidate into a fresh directory.
func prepare(code string) (string, error) {
	dir, err := os.MkdirTemp("", "funcforge-sb-*")
	if err != nil {
		return "", err
	}
	// Readable by the container user, whatever uid it runs as.
	if err := os.Chmod(dir, 0o755); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	files := map[string][]byte{
		harnessFile:   harness,
		candidateFile: []byte(code),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			os.RemoveAll(dir)
			return "", err
		}
	}
	return dir, nil
}

// execute feeds inputs to the harness command and decodes its report.
func execute(ctx context.Context, cmd *exec.Cmd, inputs []string) (*Outcome, error) {
	if inputs == nil {
		inputs = []string{}
	}
	payload, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("encode inputs: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	start := time.Now()
	err = cmd.Run()
	reap(cmd)
	if errors.Is(err, exec.ErrWaitDelay) {
		// The harness exited cleanly; only a stray child kept the pipes open.
		err = nil
	}
	log.Debug().
		Str("cmd", filepath.Base(cmd.Path)).
		Int("inputs", len(inputs)).
		Dur("took", time.Since(start)).
		Msg("harness finished")

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, ErrTimeout
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("run harness: %w (stderr: %s)", err, tail(stderr.String(), 2000))
	}

	var out Outcome
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out); err != nil {
		return nil, fmt.Errorf("decode harness output: %w", err)
	}
	if !out.MissingEntryPoint && out.LoadError == nil && len(out.Results) != len(inputs) {
		return nil, fmt.Errorf("harness returned %d results for %d inputs", len(out.Results), len(inputs))
	}
	return &out, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n:]
}

const (
	KindLocal  = "local"
	KindDocker = "docker"

	defaultTimeout = 10 * time.Second
)

// Options selects and configures a Runner.
type Options struct {
	Kind    string
	Python  string
	Image   string
	Memory  string
	CPUs    string
	Timeout time.Duration
}

// New returns the runner named by opts.Kind ("local" when empty).
func New(opts Options) (Runner, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	switch opts.Kind {
	case "", KindLocal:
		python := opts.Python
		if python == "" {
			python = "python3"
		}
		path, err := exec.LookPath(python)
		if err != nil {
			return nil, fmt.Errorf("python interpreter %q: %w", python, err)
		}
		return &LocalRunner{Python: path, Timeout: timeout}, nil
	case KindDocker:
		r := &DockerRunner{Image: opts.Image, Memory: opts.Memory, CPUs: opts.CPUs, Timeout: timeout}
		if r.Image == "" {
			r.Image = "python:3.12-alpine"
		}
		if r.Memory == "" {
			r.Memory = "256m"
		}
		if r.CPUs == "" {
			r.CPUs = "1"
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported sandbox runner: %q", opts.Kind)
	}
}
