package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "page numbers and boilerplate stripped",
			in:   " /n Page 3 \n\n\n\nTable of Contents\n\nReal content here.",
			want: "Real content here.",
		},
		{
			name: "slash newline artifact becomes space",
			in:   "first/nsecond",
			want: "first second",
		},
		{
			name: "escaped newline becomes real break",
			in:   `one\ntwo`,
			want: "one\ntwo",
		},
		{
			name: "triple breaks collapse to paragraph boundary",
			in:   "alpha\n\n\n\n\nbeta",
			want: "alpha\n\nbeta",
		},
		{
			name: "bare numeric token removed",
			in:   "intro\n\n42\n\noutro",
			want: "intro\n\noutro",
		},
		{
			name: "continued-on-next-page footer removed case-insensitively",
			in:   "body text\ncontinued ON NEXT page\nmore body",
			want: "body text\n\nmore body",
		},
		{
			name: "punctuation-only lines removed",
			in:   "heading\n___---___\n...\nparagraph",
			want: "heading\n\nparagraph",
		},
		{
			name: "numbers inside words survive",
			in:   "the c4 model stays",
			want: "the c4 model stays",
		},
		{
			name: "stripped to nothing",
			in:   "Page 1\n\n2\n\n- 3 -",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "some /n text\n\n\n\nPage 9\n\nreal paragraph."
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}
