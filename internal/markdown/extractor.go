// Package markdown turns crawled HTML into clean markdown documents.
package markdown

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// PlaceholderTitle is used when no title can be determined from the page.
const PlaceholderTitle = "Untitled Page"

// Document is the extracted, readable representation of a page.
type Document struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
	Content string `json:"content"`
}

// Extractor converts raw page HTML into a Document. Extract never fails:
// malformed HTML degrades to a minimal document instead of an error, so
// callers can treat it as an infallible collaborator.
type Extractor struct {
	logger zerolog.Logger
}

// NewExtractor creates a new markdown extractor.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With().Str("component", "markdown").Logger(),
	}
}

// Priority selectors for the main content region of a page.
var contentSelectors = []string{
	"main",
	"article",
	"[role=main]",
	".content",
	".post-content",
	".entry-content",
	".article-content",
	"#content",
	".main-content",
}

// Elements stripped from the body when no main content region is found.
var excludeSelectors = []string{
	"nav", "header", "footer", "aside", ".sidebar", "#sidebar",
	".menu", ".navigation", ".breadcrumb", ".social", ".share",
	"script", "style", "noscript",
}

// Extract parses html and returns the page title, an excerpt when one is
// declared in the page metadata, and the main content converted to markdown.
func (e *Extractor) Extract(html, sourceURL string) Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Warn().Err(err).Str("url", sourceURL).Msg("Failed to parse HTML")
		return Document{Title: PlaceholderTitle}
	}

	d := Document{
		Title:   extractTitle(doc),
		Excerpt: extractExcerpt(doc),
	}

	contentHTML := selectContent(doc)
	md, err := htmltomarkdown.ConvertString(contentHTML)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", sourceURL).Msg("Markdown conversion failed, falling back to text")
		md = cleanText(doc.Find("body").Text())
	}
	d.Content = strings.TrimSpace(md)

	e.logger.Debug().
		Str("url", sourceURL).
		Str("title", d.Title).
		Int("content_length", len(d.Content)).
		Msg("Extraction completed")

	return d
}

// selectContent returns the HTML of the main content region, preferring the
// first priority selector with a meaningful amount of text and falling back
// to the body with navigation chrome stripped out.
func selectContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if len(strings.TrimSpace(sel.Text())) > 100 {
			if h, err := goquery.OuterHtml(sel); err == nil {
				return h
			}
		}
	}

	body := doc.Find("body").Clone()
	for _, selector := range excludeSelectors {
		body.Find(selector).Remove()
	}
	h, err := goquery.OuterHtml(body)
	if err != nil {
		return ""
	}
	return h
}

func extractTitle(doc *goquery.Document) string {
	if t, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t := doc.Find("title").First().Text(); strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t := doc.Find("h1").First().Text(); strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return PlaceholderTitle
}

func extractExcerpt(doc *goquery.Document) string {
	if d, ok := doc.Find("meta[name='description']").First().Attr("content"); ok && strings.TrimSpace(d) != "" {
		return strings.TrimSpace(d)
	}
	if d, ok := doc.Find("meta[property='og:description']").First().Attr("content"); ok && strings.TrimSpace(d) != "" {
		return strings.TrimSpace(d)
	}
	return ""
}

// cleanText normalizes whitespace in plain-text fallback content.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	var cleanLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	return strings.Join(cleanLines, "\n")
}
