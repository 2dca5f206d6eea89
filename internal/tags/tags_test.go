package tags

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const response = `<thinking>
  Hmm, well, let's see.
  I don't know so I'll just make something up.
</thinking>
<code>
  if __name__ == "__main__":
    print(True)
</code>`

func TestExtract(t *testing.T) {
	thinking, err := Extract(response, "thinking")
	require.NoError(t, err)
	assert.Equal(t, "\n  Hmm, well, let's see.\n  I don't know so I'll just make something up.\n", thinking)

	code, err := Extract(response, "code")
	require.NoError(t, err)
	assert.Equal(t, "\n  if __name__ == \"__main__\":\n    print(True)\n", code)
}

func TestExtractEmptyTagIsNotMissing(t *testing.T) {
	got, err := Extract("before <code></code> after", "code")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestExtractFirstOccurrenceWins(t *testing.T) {
	got, err := Extract("<code>one</code><code>two</code>", "code")
	require.NoError(t, err)
	assert.Equal(t, "one", got)
}

func TestExtractErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want error
	}{
		{"missing", "no tags here", ErrNotFound},
		{"other tag only", "<thinking>x</thinking>", ErrNotFound},
		{"unclosed", "<code>x = 1", ErrUnclosed},
		{"closed before opened", "</code> x <code>", ErrUnclosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract(tc.text, "code")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)

			var terr *TagError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, "code", terr.Name)
		})
	}
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "<foo>&", Unescape("&lt;foo&gt;&amp;"))
	assert.Equal(t, "&lt;", Unescape("&amp;lt;"))
	assert.Equal(t, "&quot;&#39;", Unescape("&quot;&#39;"))
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"if a < b and c > d: return a & b",
		"&lt; already looks escaped &amp;",
		"<<>>&&",
		"x = '&amp;lt;'",
	}
	for _, s := range inputs {
		assert.Equal(t, s, Unescape(Escape(s)))
	}
	assert.Equal(t, "&lt;a&gt; &amp;&amp;", Escape("<a> &&"))
}
