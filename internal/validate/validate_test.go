package validate

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/forge-ai/funcforge/internal/funcspec"
	"github.com/forge-ai/funcforge/internal/sandbox"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, code string, inputs []string) (*sandbox.Outcome, error) {
	args := m.Called(code, inputs)
	out, _ := args.Get(0).(*sandbox.Outcome)
	return out, args.Error(1)
}

func lowercaseSpec() funcspec.FuncSpec {
	return funcspec.FuncSpec{
		Description: "Convert the string to lowercase.",
		Examples: []funcspec.Example{
			{Input: "Hello world!", Output: "hello world!"},
			{Input: "Only You Can Prevent Forest Fires", Output: "only you can prevent forest fires"},
		},
	}
}

func strp(s string) *string { return &s }

const lowerCode = "def solve(s):\n    return s.lower()"

func TestValidateWithRunner(t *testing.T) {
	spec := lowercaseSpec()
	inputs := spec.Inputs()

	cases := []struct {
		name    string
		outcome *sandbox.Outcome
		want    []Failure
	}{
		{
			name: "all pass",
			outcome: &sandbox.Outcome{Results: []sandbox.Result{
				{Output: "hello world!"},
				{Output: "only you can prevent forest fires"},
			}},
			want: []Failure{},
		},
		{
			name:    "missing entry point",
			outcome: &sandbox.Outcome{MissingEntryPoint: true},
			want:    []Failure{{Err: ErrNoEntryPoint}},
		},
		{
			name:    "load error",
			outcome: &sandbox.Outcome{LoadError: strp("invalid syntax")},
			want:    []Failure{{Err: &LoadError{Message: "invalid syntax"}}},
		},
		{
			name: "error on one example does not stop the rest",
			outcome: &sandbox.Outcome{Results: []sandbox.Result{
				{Error: strp("boom")},
				{Output: "wrong"},
			}},
			want: []Failure{
				{Input: "Hello world!", Expected: "hello world!", Err: &ExecError{Message: "boom"}},
				{Input: "Only You Can Prevent Forest Fires", Expected: "only you can prevent forest fires", Actual: "wrong"},
			},
		},
		{
			name: "non string return never matches",
			outcome: &sandbox.Outcome{Results: []sandbox.Result{
				{Output: "hello world!", NonString: true},
				{Output: "only you can prevent forest fires"},
			}},
			want: []Failure{
				{Input: "Hello world!", Expected: "hello world!", Actual: "hello world!"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &mockRunner{}
			r.On("Run", lowerCode, inputs).Return(tc.outcome, nil).Once()

			got, err := Validate(context.Background(), r, spec, lowerCode)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			r.AssertExpectations(t)
		})
	}
}

func TestValidateTimeoutIsAFailure(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", mock.Anything, mock.Anything).Return(nil, sandbox.ErrTimeout)

	got, err := Validate(context.Background(), r, lowercaseSpec(), "while True: pass")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, sandbox.ErrTimeout)
}

func TestValidateInfrastructureError(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("exec: python3 not found"))

	got, err := Validate(context.Background(), r, lowercaseSpec(), lowerCode)
	assert.Nil(t, got)
	assert.EqualError(t, err, "run code: exec: python3 not found")
}

func TestValidateShortResults(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", mock.Anything, mock.Anything).Return(&sandbox.Outcome{Results: []sandbox.Result{{Output: "hello world!"}}}, nil)

	got, err := Validate(context.Background(), r, lowercaseSpec(), lowerCode)
	assert.Nil(t, got)
	assert.EqualError(t, err, "runner returned 1 results for 2 examples")
}

func TestFailureKinds(t *testing.T) {
	assert.True(t, Failure{Actual: "x"}.Mismatch())
	assert.False(t, Failure{Err: ErrNoEntryPoint}.Mismatch())

	assert.True(t, Failure{Err: ErrNoEntryPoint}.Whole())
	assert.True(t, Failure{Err: &LoadError{Message: "bad"}}.Whole())
	assert.True(t, Failure{Err: sandbox.ErrTimeout}.Whole())
	assert.False(t, Failure{Input: "x", Err: &ExecError{Message: "no"}}.Whole())
	assert.False(t, Failure{Actual: "x"}.Whole())
}

// The tests below execute real Python through the local sandbox.

func pythonRunner(t *testing.T) sandbox.Runner {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not on PATH")
	}
	r, err := sandbox.New(sandbox.Options{Kind: sandbox.KindLocal, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return r
}

func TestValidateCodeSuccessful(t *testing.T) {
	failures, err := Validate(context.Background(), pythonRunner(t), lowercaseSpec(), lowerCode)
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestValidateCodeNoFunction(t *testing.T) {
	failures, err := Validate(context.Background(), pythonRunner(t), lowercaseSpec(), "a = 3 + 4")
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.EqualError(t, failures[0].Err, "The code did not define a solve function.")
	assert.ErrorIs(t, failures[0].Err, ErrNoEntryPoint)
}

func TestValidateCodeError(t *testing.T) {
	code := "def solve(s):\n    raise ValueError('no')"
	failures, err := Validate(context.Background(), pythonRunner(t), lowercaseSpec(), code)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.EqualError(t, failures[0].Err, "no")

	var execErr *ExecError
	assert.ErrorAs(t, failures[0].Err, &execErr)
}

func TestValidateCodeFailure(t *testing.T) {
	spec := lowercaseSpec()
	expected := spec.Examples[1].Output
	spec.Examples[1].Output = "BOGUS"

	failures, err := Validate(context.Background(), pythonRunner(t), spec, lowerCode)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, Failure{Input: spec.Examples[1].Input, Expected: "BOGUS", Actual: expected}, failures[0])
}
