package funcspec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lowercase = FuncSpec{
	Description: "Convert the string to lowercase.",
	Examples: []Example{
		{Input: "Hello world!", Output: "hello world!"},
		{Input: "Only You Can Prevent Forest Fires", Output: "only you can prevent forest fires"},
	},
}

func TestLoad(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"toml", "testdata/example_lowercase.toml"},
		{"yaml", "testdata/example_lowercase.yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := Load(tc.path)
			require.NoError(t, err)
			assert.Equal(t, lowercase, spec)
		})
	}
}

func TestLoadWithoutDescriptionKeepsEmptyInput(t *testing.T) {
	spec, err := Load("testdata/no_description.toml")
	require.NoError(t, err)
	assert.Empty(t, spec.Description)
	assert.Equal(t, []Example{{Input: "", Output: "empty"}}, spec.Examples)
}

func TestLoadMissingField(t *testing.T) {
	_, err := Load("testdata/missing_output.toml")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "testdata/missing_output.toml", perr.Path)
	assert.Contains(t, err.Error(), "example 2")
	assert.Contains(t, err.Error(), "missing required field output")
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load("testdata/malformed.toml")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "parse TOML")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("descripton = \"typo\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown key "descripton"`)
}

func TestInputs(t *testing.T) {
	assert.Equal(t, []string{"Hello world!", "Only You Can Prevent Forest Fires"}, lowercase.Inputs())
	assert.Empty(t, FuncSpec{}.Inputs())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(lowercase))
	assert.NoError(t, Validate(FuncSpec{Description: "only words"}))

	err := Validate(FuncSpec{})
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseJSON(t *testing.T) {
	spec, err := ParseJSON([]byte(`{"description": "d", "examples": [{"input": "", "output": "x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, FuncSpec{Description: "d", Examples: []Example{{Input: "", Output: "x"}}}, spec)

	_, err = ParseJSON([]byte(`{"examples": [{"input": "a"}]}`))
	assert.EqualError(t, err, "parse spec: example 1: missing required field output")

	_, err = ParseJSON([]byte(`{"description": "d", "extra": 1}`))
	assert.ErrorContains(t, err, "parse JSON")
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"examples": [{"input": "A", "output": "a"}]}`), 0o644))

	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Example{{Input: "A", Output: "a"}}, spec.Examples)
	assert.Empty(t, spec.Description)
}

func TestLoadYAMLRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("descripton: typo\n"), 0o644))

	_, err := Load(path)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorContains(t, err, "parse YAML")
	assert.ErrorContains(t, err, "descripton")
}

func TestLoadEmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FuncSpec{Examples: []Example{}}, spec)
}
