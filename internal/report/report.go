// Package report renders validation results for a terminal.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/xlab/treeprint"

	"github.com/forge-ai/funcforge/internal/validate"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow)
	gray   = color.New(color.FgHiBlack)
)

// Failures writes a summary line and, when anything failed, a tree with one
// branch per failure.
func Failures(w io.Writer, examples int, failures []validate.Failure) error {
	if len(failures) == 0 {
		_, err := green.Fprintf(w, "✔ all %d examples passed\n", examples)
		return err
	}

	summary := "✘ code failed"
	if examples > 0 {
		summary = fmt.Sprintf("✘ %d of %d examples failed", countExamples(failures, examples), examples)
	}
	tree := treeprint.NewWithRoot(red.Sprint(summary))
	for _, f := range failures {
		if f.Whole() {
			tree.AddNode(red.Sprint(f.Err.Error()))
			continue
		}
		branch := tree.AddBranch("input " + strconv.Quote(f.Input))
		branch.AddNode(gray.Sprint("expected ") + strconv.Quote(f.Expected))
		if f.Mismatch() {
			branch.AddNode(yellow.Sprint("got      ") + strconv.Quote(f.Actual))
		} else {
			branch.AddNode(red.Sprint("error    ") + f.Err.Error())
		}
	}
	_, err := fmt.Fprint(w, tree.String())
	return err
}

// countExamples is the number of failed examples; a program-level failure
// fails all of them.
func countExamples(failures []validate.Failure, examples int) int {
	for _, f := range failures {
		if f.Whole() {
			return examples
		}
	}
	return len(failures)
}

// Code writes the reasoning (dimmed) followed by the code.
func Code(w io.Writer, thinking, code string) error {
	if thinking != "" {
		if _, err := gray.Fprintln(w, thinking); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, code)
	return err
}
