// Package prompt renders a FuncSpec into the instruction sent to the model.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/forge-ai/funcforge/internal/funcspec"
)

// Optional sections use trim markers so an absent description or an empty
// example list leaves no blank line behind.
const promptTemplate = `Your goal is to implement a particular function with Python code.
{{- with .Description}}
Here is a description of the function: <description>{{.}}</description>
{{- end}}
{{- if .Examples}}
The following examples show the correct output for various inputs:
{{- range .Examples}}
<example>
    <input>{{.Input}}</input>
    <output>{{.Output}}</output>
</example>
{{- end}}
{{- end}}
Please make your best guess what the function is intended to do even if you do not have sufficient information.
Think step-by-step and put your thought process in a <thinking> tag.
Write the Python code in a <code> tag. Escape any '<', '>', or '&' characters in the code using '&lt;', '&gt;', and '&amp;' respectively.
The primary function in the Python code should be named '` + funcspec.EntryPoint + `', should take a single string parameter as input, and should return a string.
The Python code should only use built-in Python libraries.`

var tmpl = template.Must(template.New("prompt").Parse(promptTemplate))

// Build renders the prompt for spec. Description and example text is
// inserted as is.
func Build(spec funcspec.FuncSpec) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, spec); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}
