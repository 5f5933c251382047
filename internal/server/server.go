// Package server wires the Crawlbase tools into an MCP server: it maps tool
// calls onto the request-builder/client/post-processing pipeline and turns
// every fault into an error content block instead of letting it escape to
// the transport.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/crawlbase/crawlbase-mcp/internal/crawlbase"
	"github.com/crawlbase/crawlbase-mcp/internal/markdown"
)

const (
	serverName    = "crawlbase-mcp-server"
	serverVersion = "1.0.0"
)

// Tool names exposed to calling agents.
const (
	ToolCrawl           = "crawl"
	ToolCrawlMarkdown   = "crawl_markdown"
	ToolCrawlScreenshot = "crawl_screenshot"
)

// Crawler issues one scrape request against the upstream API.
type Crawler interface {
	Crawl(ctx context.Context, p crawlbase.Parameters) crawlbase.Result
}

// Extractor converts crawled HTML into a markdown document.
type Extractor interface {
	Extract(html, sourceURL string) markdown.Document
}

// Options configures a Server instance.
type Options struct {
	Credentials crawlbase.Credentials
	Crawler     Crawler      // defaults to the real Crawlbase client
	Extractor   Extractor    // defaults to the markdown extractor
	HTTPClient  *http.Client // used for screenshot downloads
	Logger      zerolog.Logger
}

// Server exposes the crawl tools over MCP. Each instance carries its own
// credentials, so per-caller tokens never leak between concurrent requests.
type Server struct {
	server     *mcp.Server
	creds      crawlbase.Credentials
	crawler    Crawler
	extractor  Extractor
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a new MCP server with the crawl tools registered.
func New(opts Options) *Server {
	logger := opts.Logger.With().Str("component", "server").Logger()

	if opts.Crawler == nil {
		opts.Crawler = crawlbase.NewClient(crawlbase.Config{}, opts.Logger)
	}
	if opts.Extractor == nil {
		opts.Extractor = markdown.NewExtractor(opts.Logger)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	if opts.Credentials.Token == "" && opts.Credentials.JSToken == "" {
		logger.Warn().Msg("No Crawlbase tokens configured, set CRAWLBASE_TOKEN and/or CRAWLBASE_JS_TOKEN")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{})

	s := &Server{
		server:     mcpServer,
		creds:      opts.Credentials,
		crawler:    opts.Crawler,
		extractor:  opts.Extractor,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
	s.registerTools()

	return s
}

// CrawlArgs is the input schema for the crawl tool.
type CrawlArgs struct {
	URL        string `json:"url"`
	UserAgent  string `json:"user_agent,omitempty"`
	Device     string `json:"device,omitempty"`
	Country    string `json:"country,omitempty"`
	AjaxWait   int    `json:"ajax_wait,omitempty"`
	PageWait   int    `json:"page_wait,omitempty"`
	Screenshot bool   `json:"screenshot,omitempty"`
}

// MarkdownArgs is the input schema for the crawl_markdown tool.
type MarkdownArgs struct {
	URL       string `json:"url"`
	UserAgent string `json:"user_agent,omitempty"`
	Device    string `json:"device,omitempty"`
}

// ScreenshotArgs is the input schema for the crawl_screenshot tool.
type ScreenshotArgs struct {
	URL      string `json:"url"`
	Device   string `json:"device,omitempty"`
	PageWait int    `json:"page_wait,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// registerTools registers the three crawl tools with the MCP server. Every
// handler routes through Dispatch so faults are converted in one place.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolCrawl,
		Description: "Crawl a URL and return HTML content",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CrawlArgs) (*mcp.CallToolResult, any, error) {
		return s.Dispatch(ctx, ToolCrawl, args), nil, nil
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolCrawlMarkdown,
		Description: "Crawl a URL and extract clean markdown content",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args MarkdownArgs) (*mcp.CallToolResult, any, error) {
		return s.Dispatch(ctx, ToolCrawlMarkdown, args), nil, nil
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolCrawlScreenshot,
		Description: "Take a screenshot of a webpage",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ScreenshotArgs) (*mcp.CallToolResult, any, error) {
		return s.Dispatch(ctx, ToolCrawlScreenshot, args), nil, nil
	})
}

// MCP returns the underlying MCP server, for binding to a transport.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves MCP over stdio until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().
		Str("name", serverName).
		Str("version", serverVersion).
		Msg("Starting MCP server")

	return s.server.Run(ctx, mcp.NewStdioTransport())
}
