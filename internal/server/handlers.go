package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/crawlbase/crawlbase-mcp/internal/crawlbase"
	"github.com/crawlbase/crawlbase-mcp/internal/imaging"
)

// maxMarkdownChars bounds extracted markdown content so responses stay
// under client token limits.
const maxMarkdownChars = 50000

const truncationMarker = "\n\n[Content truncated due to size limits]"

// Dispatch routes a tool invocation by name and never fails: validation
// errors, upstream failures, residual errors and panics from any pipeline
// stage all come back as a single text error block with IsError set.
func (s *Server) Dispatch(ctx context.Context, name string, args any) *mcp.CallToolResult {
	result, err := s.dispatch(ctx, name, args)
	if err != nil {
		s.logger.Error().Err(err).Str("tool", name).Msg("Tool call failed")
		return errorResult("Error: " + err.Error())
	}
	return result
}

func (s *Server) dispatch(ctx context.Context, name string, args any) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	s.logger.Debug().Str("tool", name).Msg("Dispatching tool call")

	switch name {
	case ToolCrawl:
		a, err := coerce[CrawlArgs](args)
		if err != nil {
			return nil, err
		}
		return s.handleCrawl(ctx, a)
	case ToolCrawlMarkdown:
		a, err := coerce[MarkdownArgs](args)
		if err != nil {
			return nil, err
		}
		return s.handleCrawlMarkdown(ctx, a)
	case ToolCrawlScreenshot:
		a, err := coerce[ScreenshotArgs](args)
		if err != nil {
			return nil, err
		}
		return s.handleCrawlScreenshot(ctx, a)
	default:
		return errorResult(fmt.Sprintf("Unknown tool: %s", name)), nil
	}
}

// handleCrawl returns the crawled page HTML verbatim, with no truncation.
func (s *Server) handleCrawl(ctx context.Context, args CrawlArgs) (*mcp.CallToolResult, error) {
	params, err := crawlbase.BuildParameters(crawlbase.Args{
		URL:        args.URL,
		UserAgent:  args.UserAgent,
		Device:     args.Device,
		Country:    args.Country,
		AjaxWait:   args.AjaxWait,
		PageWait:   args.PageWait,
		Screenshot: args.Screenshot,
	}, s.creds, crawlbase.CapabilityPlain)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to crawl %s: %v", args.URL, err)), nil
	}

	result := s.crawler.Crawl(ctx, params)
	if !result.OK {
		return errorResult(fmt.Sprintf("Failed to crawl %s: %s", params.URL, result.ErrorMessage)), nil
	}

	return textResult(fmt.Sprintf("Successfully crawled %s\n\nHTML Content:\n%s", params.URL, result.Body)), nil
}

// handleCrawlMarkdown crawls the page, extracts readable content as
// markdown and truncates it to maxMarkdownChars.
func (s *Server) handleCrawlMarkdown(ctx context.Context, args MarkdownArgs) (*mcp.CallToolResult, error) {
	params, err := crawlbase.BuildParameters(crawlbase.Args{
		URL:       args.URL,
		UserAgent: args.UserAgent,
		Device:    args.Device,
	}, s.creds, crawlbase.CapabilityPlain)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to crawl %s: %v", args.URL, err)), nil
	}

	result := s.crawler.Crawl(ctx, params)
	if !result.OK {
		return errorResult(fmt.Sprintf("Failed to crawl %s: %s", params.URL, result.ErrorMessage)), nil
	}

	doc := s.extractor.Extract(result.Body, params.URL)

	content := doc.Content
	if len(content) > maxMarkdownChars {
		content = truncateUTF8(content, maxMarkdownChars) + truncationMarker
	}

	text := fmt.Sprintf("# %s\n\n", doc.Title)
	if doc.Excerpt != "" {
		text += fmt.Sprintf("**Summary:** %s\n\n", doc.Excerpt)
	}
	text += content

	return textResult(text), nil
}

// handleCrawlScreenshot crawls with screenshot rendering forced on,
// downloads the rendered image and bounds it to imaging.MaxDimension
// before embedding it in the response.
func (s *Server) handleCrawlScreenshot(ctx context.Context, args ScreenshotArgs) (*mcp.CallToolResult, error) {
	params, err := crawlbase.BuildParameters(crawlbase.Args{
		URL:        args.URL,
		Device:     args.Device,
		PageWait:   args.PageWait,
		Screenshot: true,
		Mode:       args.Mode,
		Width:      args.Width,
		Height:     args.Height,
	}, s.creds, crawlbase.CapabilityJS)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to take screenshot of %s: %v", args.URL, err)), nil
	}

	result := s.crawler.Crawl(ctx, params)
	if !result.OK {
		return errorResult(fmt.Sprintf("Failed to take screenshot of %s: %s", params.URL, result.ErrorMessage)), nil
	}

	if result.ScreenshotURL == "" {
		return errorResult(fmt.Sprintf(
			"Failed to take screenshot of %s: No screenshot URL returned. Please ensure you have a valid JavaScript token configured.",
			params.URL)), nil
	}

	// Second network hop: the screenshot bytes live behind a separate URL.
	// Failures here are reported with that URL so the caller can retry the
	// download out-of-band.
	data, status, err := s.downloadScreenshot(ctx, result.ScreenshotURL)
	if err != nil {
		return errorResult(fmt.Sprintf(
			"Screenshot was generated for %s, but failed to download from URL: %s. Error: %v",
			params.URL, result.ScreenshotURL, err)), nil
	}
	if status < 200 || status >= 300 {
		return errorResult(fmt.Sprintf(
			"Screenshot was generated for %s, but failed to download from URL: %s. Status: %d",
			params.URL, result.ScreenshotURL, status)), nil
	}

	img, err := imaging.FitWithin(data, imaging.MaxDimension)
	if err != nil {
		return errorResult(fmt.Sprintf(
			"Screenshot was generated for %s, but failed to download from URL: %s. Error: %v",
			params.URL, result.ScreenshotURL, err)), nil
	}

	s.logger.Info().
		Str("url", params.URL).
		Int("width", img.Width).
		Int("height", img.Height).
		Bool("resized", img.Resized).
		Msg("Screenshot processed")

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{Data: img.Data, MIMEType: img.MIMEType},
			&mcp.TextContent{Text: fmt.Sprintf(
				"Screenshot successfully taken of %s\n\nScreenshot URL: %s",
				params.URL, result.ScreenshotURL)},
		},
	}, nil
}

// downloadScreenshot fetches the screenshot bytes. Transport errors are
// returned as err, HTTP-level failures via status, so the caller can report
// the two cases distinctly.
func (s *Server) downloadScreenshot(ctx context.Context, screenshotURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, screenshotURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// coerce converts a loosely-typed argument bag into the tool's typed
// arguments. Typed values pass through untouched; maps take a JSON round
// trip, matching how the MCP layer decodes them.
func coerce[T any](args any) (T, error) {
	if v, ok := args.(T); ok {
		return v, nil
	}
	var out T
	data, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("invalid arguments: %w", err)
	}
	return out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
