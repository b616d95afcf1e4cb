package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	src := `<html><head><title>T</title><style>.x{color:red}</style></head>
	<body>
		<h1>Products</h1>
		<script>var tracking = true;</script>
		<p>Widgets are   <b>great</b>.</p>
		<ul><li>one</li><li>two</li></ul>
	</body></html>`

	text, err := ExtractText(src)
	require.NoError(t, err)

	assert.Contains(t, text, "Products")
	assert.Contains(t, text, "Widgets are great.")
	assert.Contains(t, text, "one")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color:red")
	// block elements break lines
	assert.NotContains(t, text, "Products Widgets")
}

func TestExtractTextInlineJoins(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		// no whitespace in the source, none in the output
		{"<p><b>great</b>.</p>", "great."},
		{"<p>a<b>b</b>c</p>", "abc"},
		// source whitespace survives, on either side of the element
		{"<p>Widgets are <b>great</b>.</p>", "Widgets are great."},
		{"<p>read<b> more</b> here</p>", "read more here"},
		// whitespace-only text between inline elements still separates
		{"<p><em>a</em> <em>b</em></p>", "a b"},
	}
	for _, tt := range tests {
		text, err := ExtractText(tt.src)
		require.NoError(t, err)
		assert.Equal(t, tt.want, text, tt.src)
	}
}

func TestExtractTextCollapsesBlankLines(t *testing.T) {
	text, err := ExtractText("<div><p>a</p><div></div><div></div><p>b</p></div>")
	require.NoError(t, err)
	assert.NotContains(t, text, "\n\n\n")
}

func TestExtractLinks(t *testing.T) {
	src := `<body>
		<a href="/one">1</a>
		<a href="/two">2</a>
		<a href="/one">dup</a>
		<a>no href</a>
	</body>`

	links, err := ExtractLinks(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"/one", "/two"}, links)
}
