package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIndent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "empty", text: "", want: ""},
		{name: "flat", text: `{"a":1}`, want: ""},
		{name: "two spaces", text: "{\n  \"a\": {\n    \"b\": 1\n  }\n}", want: "  "},
		{name: "four spaces", text: "{\n    \"a\": 1,\n    \"b\": 2\n}", want: "    "},
		{name: "tabs", text: "{\n\t\"a\": {\n\t\t\"b\": 1\n\t}\n}", want: "\t"},
		{name: "crlf two spaces", text: "{\r\n  \"a\": 1,\r\n  \"b\": 2\r\n}\r\n", want: "  "},
		{
			name: "single spaces ignored when wider indents exist",
			text: "a\n b\n  c\n  d\n    e\n  f",
			want: "  ",
		},
		{name: "only single spaces", text: "a\n b\n c", want: " "},
		{name: "exact tie keeps first seen", text: "a\n  b\nc\n    d", want: "  "},
		{
			name: "tie broken by same-depth lines",
			text: "x\n  y\nz\n  w\na\n    b\n    c",
			want: "    ",
		},
		{name: "mixed tie keeps first type", text: "a\n\tb\n\tc\n  d\n  e", want: "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIndent(tt.text))
		})
	}
}
