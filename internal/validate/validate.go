// Package validate checks generated code against a spec's examples.
package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/forge-ai/funcforge/internal/funcspec"
	"github.com/forge-ai/funcforge/internal/sandbox"
)

// ErrNoEntryPoint is reported when the code ran but did not define the
// entry point.
var ErrNoEntryPoint = errors.New("The code did not define a " + funcspec.EntryPoint + " function.")

// ExecError carries the message of an error raised by the entry point.
type ExecError struct {
	Message string
}

func (e *ExecError) Error() string { return e.Message }

// LoadError carries the message of an error raised while the code itself was
// executed, before the entry point could be looked up.
type LoadError struct {
	Message string
}

func (e *LoadError) Error() string { return e.Message }

// Failure describes one example the code got wrong. Err is nil for a plain
// output mismatch; otherwise Actual is empty and Err says what went wrong.
type Failure struct {
	Input    string
	Expected string
	Actual   string
	Err      error
}

// Mismatch reports whether the code ran and returned the wrong value.
func (f Failure) Mismatch() bool { return f.Err == nil }

// Whole reports whether the failure concerns the program as a whole rather
// than a single example.
func (f Failure) Whole() bool {
	var le *LoadError
	return errors.Is(f.Err, ErrNoEntryPoint) || errors.Is(f.Err, sandbox.ErrTimeout) || errors.As(f.Err, &le)
}

// Validate runs code against every example of spec and returns the failures
// in example order. An empty result means every example passed. The error is
// reserved for problems running the code at all, such as a missing
// interpreter.
func Validate(ctx context.Context, runner sandbox.Runner, spec funcspec.FuncSpec, code string) ([]Failure, error) {
	out, err := runner.Run(ctx, code, spec.Inputs())
	if errors.Is(err, sandbox.ErrTimeout) {
		return []Failure{{Err: err}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run code: %w", err)
	}

	if out.MissingEntryPoint {
		return []Failure{{Err: ErrNoEntryPoint}}, nil
	}
	if out.LoadError != nil {
		return []Failure{{Err: &LoadError{Message: *out.LoadError}}}, nil
	}

	if len(out.Results) != len(spec.Examples) {
		return nil, fmt.Errorf("runner returned %d results for %d examples", len(out.Results), len(spec.Examples))
	}

	failures := []Failure{}
	for i, ex := range spec.Examples {
		res := out.Results[i]
		switch {
		case res.Error != nil:
			failures = append(failures, Failure{
				Input:    ex.Input,
				Expected: ex.Output,
				Err:      &ExecError{Message: *res.Error},
			})
		case res.NonString || res.Output != ex.Output:
			failures = append(failures, Failure{
				Input:    ex.Input,
				Expected: ex.Output,
				Actual:   res.Output,
			})
		}
	}

	log.Debug().
		Int("examples", len(spec.Examples)).
		Int("failures", len(failures)).
		Msg("validated code")
	return failures, nil
}
