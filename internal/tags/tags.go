// Package tags pulls tag-delimited sections out of model responses and
// reverses the escaping applied to code inside them.
package tags

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("tag not found")
	ErrUnclosed = errors.New("tag not closed")
)

// TagError names the tag that could not be extracted.
type TagError struct {
	Name string
	Err  error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("<%s>: %v", e.Name, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

// Extract returns the text between the first <name> and the first </name>
// that follows it, byte for byte. Later occurrences are ignored.
func Extract(text, name string) (string, error) {
	open := "<" + name + ">"
	closing := "</" + name + ">"

	start := strings.Index(text, open)
	if start < 0 {
		return "", &TagError{Name: name, Err: ErrNotFound}
	}
	start += len(open)

	end := strings.Index(text[start:], closing)
	if end < 0 {
		return "", &TagError{Name: name, Err: ErrUnclosed}
	}
	return text[start : start+end], nil
}

var (
	unescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
	escaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// Unescape reverses &lt; &gt; and &amp; in a single pass, so "&amp;lt;"
// becomes "&lt;" and not "<". Other entities are left alone.
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// Escape is the inverse of Unescape.
func Escape(s string) string {
	return escaper.Replace(s)
}
