// Package funcspec loads the description and input/output examples that
// describe a function to synthesize.
package funcspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EntryPoint is the function name generated code must define. It takes one
// string and returns a string.
const EntryPoint = "solve"

// FuncSpec is a description plus ordered examples. An empty Description
// means no description was given.
type FuncSpec struct {
	Description string    `json:"description,omitempty"`
	Examples    []Example `json:"examples"`
}

// Example pairs an input with its expected output.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Inputs returns the example inputs in order.
func (s FuncSpec) Inputs() []string {
	inputs := make([]string, len(s.Examples))
	for i, ex := range s.Examples {
		inputs[i] = ex.Input
	}
	return inputs
}

// ParseError reports a spec file that could not be turned into a FuncSpec.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "parse spec: " + e.Err.Error()
	}
	return fmt.Sprintf("parse spec %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// rawSpec mirrors the file layout. Pointers let validation tell a missing
// key apart from an empty string.
type rawSpec struct {
	Description *string      `toml:"description" yaml:"description" json:"description"`
	Examples    []rawExample `toml:"examples" yaml:"examples" json:"examples"`
}

type rawExample struct {
	Input  *string `toml:"input" yaml:"input" json:"input" validate:"required"`
	Output *string `toml:"output" yaml:"output" json:"output" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a TOML file (or YAML or JSON, by extension) into a FuncSpec.
func Load(path string) (FuncSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FuncSpec{}, &ParseError{Path: path, Err: fmt.Errorf("read spec file: %w", err)}
	}

	var raw rawSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &raw)
	case ".json":
		err = decodeJSON(data, &raw)
	default:
		err = decodeTOML(data, &raw)
	}
	if err != nil {
		return FuncSpec{}, &ParseError{Path: path, Err: err}
	}

	spec, err := raw.toFuncSpec()
	if err != nil {
		return FuncSpec{}, &ParseError{Path: path, Err: err}
	}
	return spec, nil
}

// Parse decodes TOML text that is already in memory.
func Parse(data []byte) (FuncSpec, error) {
	var raw rawSpec
	if err := decodeTOML(data, &raw); err != nil {
		return FuncSpec{}, &ParseError{Err: err}
	}
	spec, err := raw.toFuncSpec()
	if err != nil {
		return FuncSpec{}, &ParseError{Err: err}
	}
	return spec, nil
}

// ParseJSON decodes the JSON form of a spec, as submitted over HTTP.
func ParseJSON(data []byte) (FuncSpec, error) {
	var raw rawSpec
	if err := decodeJSON(data, &raw); err != nil {
		return FuncSpec{}, &ParseError{Err: err}
	}
	spec, err := raw.toFuncSpec()
	if err != nil {
		return FuncSpec{}, &ParseError{Err: err}
	}
	return spec, nil
}

func decodeTOML(data []byte, raw *rawSpec) error {
	md, err := toml.Decode(string(data), raw)
	if err != nil {
		return fmt.Errorf("parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return nil
}

func decodeYAML(data []byte, raw *rawSpec) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(raw); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse YAML: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, raw *rawSpec) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

func (r rawSpec) toFuncSpec() (FuncSpec, error) {
	for i, ex := range r.Examples {
		if err := validate.Struct(ex); err != nil {
			return FuncSpec{}, fmt.Errorf("example %d: %w", i+1, describe(err))
		}
	}

	spec := FuncSpec{Examples: make([]Example, 0, len(r.Examples))}
	if r.Description != nil {
		spec.Description = *r.Description
	}
	for _, ex := range r.Examples {
		spec.Examples = append(spec.Examples, Example{Input: *ex.Input, Output: *ex.Output})
	}
	return spec, nil
}

// describe turns validator output into "missing field input" style errors.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("missing required field %s", strings.Join(fields, ", "))
}

// Validate checks a spec built in memory (for example decoded from JSON).
func Validate(spec FuncSpec) error {
	if spec.Description == "" && len(spec.Examples) == 0 {
		return &ParseError{Err: errors.New("spec needs a description or at least one example")}
	}
	return nil
}
