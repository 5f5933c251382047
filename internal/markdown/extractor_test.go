package markdown

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Extractor {
	return NewExtractor(zerolog.Nop())
}

const articleHTML = `<!DOCTYPE html>
<html>
<head>
<title>Go Concurrency Patterns</title>
<meta name="description" content="A tour of concurrency patterns in Go.">
</head>
<body>
<nav><a href="/">Home</a><a href="/blog">Blog</a>NAVCHROME</nav>
<main>
<h2>Pipelines</h2>
<p>A pipeline is a series of stages connected by channels, where each stage
is a group of goroutines running the same function. This paragraph is long
enough to count as real article content for extraction purposes.</p>
</main>
<footer>FOOTERCHROME</footer>
</body>
</html>`

func TestExtract(t *testing.T) {
	e := newTestExtractor()

	t.Run("article page", func(t *testing.T) {
		doc := e.Extract(articleHTML, "https://example.com/article")

		assert.Equal(t, "Go Concurrency Patterns", doc.Title)
		assert.Equal(t, "A tour of concurrency patterns in Go.", doc.Excerpt)
		assert.Contains(t, doc.Content, "## Pipelines")
		assert.Contains(t, doc.Content, "series of stages")
		assert.NotContains(t, doc.Content, "NAVCHROME")
		assert.NotContains(t, doc.Content, "FOOTERCHROME")
	})

	t.Run("fallback strips navigation chrome", func(t *testing.T) {
		html := `<html><head><title>T</title></head><body>
<nav>NAVCHROME</nav>
<script>var x = "SCRIPTCHROME";</script>
<p>Short body text.</p>
</body></html>`
		doc := e.Extract(html, "https://example.com")

		assert.Contains(t, doc.Content, "Short body text.")
		assert.NotContains(t, doc.Content, "NAVCHROME")
		assert.NotContains(t, doc.Content, "SCRIPTCHROME")
	})

	t.Run("title falls back to h1", func(t *testing.T) {
		doc := e.Extract("<html><body><h1>Heading Title</h1><p>body</p></body></html>", "https://example.com")
		assert.Equal(t, "Heading Title", doc.Title)
	})

	t.Run("og title wins over title tag", func(t *testing.T) {
		html := `<html><head><title>Tag Title</title>
<meta property="og:title" content="OG Title"></head><body><p>x</p></body></html>`
		doc := e.Extract(html, "https://example.com")
		assert.Equal(t, "OG Title", doc.Title)
	})

	t.Run("placeholder title when none found", func(t *testing.T) {
		doc := e.Extract("<html><body><p>no title here</p></body></html>", "https://example.com")
		assert.Equal(t, PlaceholderTitle, doc.Title)
	})

	t.Run("no excerpt when page declares none", func(t *testing.T) {
		doc := e.Extract("<html><head><title>T</title></head><body><p>x</p></body></html>", "https://example.com")
		assert.Empty(t, doc.Excerpt)
	})

	t.Run("malformed html does not fail", func(t *testing.T) {
		require.NotPanics(t, func() {
			doc := e.Extract("<<<not <html at all>>> <p unterminated", "https://example.com")
			assert.Equal(t, PlaceholderTitle, doc.Title)
		})
	})

	t.Run("empty input", func(t *testing.T) {
		doc := e.Extract("", "https://example.com")
		assert.Equal(t, PlaceholderTitle, doc.Title)
		assert.Empty(t, strings.TrimSpace(doc.Excerpt))
	})
}
