// Package crawlbase implements the client for the Crawlbase Crawling API:
// request parameter validation, token selection and the single-shot HTTP
// call against the API endpoint.
package crawlbase

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Capability selects which Crawlbase token a request needs. The plain token
// covers static crawling; JavaScript rendering (and therefore screenshots)
// requires the JS token.
type Capability int

const (
	CapabilityPlain Capability = iota
	CapabilityJS
)

// Credentials holds the two Crawlbase tokens. They may come from process-wide
// configuration or from per-request HTTP headers; each server instance owns
// its own copy so concurrent callers never share credentials.
type Credentials struct {
	Token   string
	JSToken string
}

// ErrJSTokenRequired is returned when a screenshot is requested but no
// JavaScript-rendering token is configured. The message is user-facing.
var ErrJSTokenRequired = errors.New("JavaScript token (CRAWLBASE_JS_TOKEN) is required for screenshots but not configured")

// ValidationError reports a malformed or missing request argument. It is
// always raised before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Args is the untrusted argument bag supplied by the calling agent. It
// mirrors the tool input schemas; the MCP layer has already checked the
// JSON types, BuildParameters checks the semantics.
type Args struct {
	URL        string `json:"url"`
	UserAgent  string `json:"user_agent,omitempty"`
	Device     string `json:"device,omitempty"`
	Country    string `json:"country,omitempty"`
	AjaxWait   int    `json:"ajax_wait,omitempty"`
	PageWait   int    `json:"page_wait,omitempty"`
	Screenshot bool   `json:"screenshot,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// Parameters is a validated, normalized Crawlbase request. It is built fresh
// per tool invocation and never mutated afterwards.
type Parameters struct {
	URL                 string
	Token               string
	UserAgent           string
	Device              string
	Country             string
	AjaxWait            int
	PageWait            int
	Screenshot          bool
	ScreenshotMode      string
	ScreenshotMaxWidth  int
	ScreenshotMaxHeight int
}

const (
	ModeFullpage = "fullpage"
	ModeViewport = "viewport"
)

var validDevices = map[string]bool{
	"desktop": true,
	"mobile":  true,
	"tablet":  true,
}

// BuildParameters validates args and resolves the token for the requested
// capability. It is a pure transform: no network calls, no side effects.
//
// Token policy: the capability picks between creds.Token and creds.JSToken,
// and a screenshot request always forces the JS token because the API only
// renders screenshots with JavaScript crawling enabled. A missing JS token
// fails here, before anything is sent upstream.
func BuildParameters(args Args, creds Credentials, capability Capability) (Parameters, error) {
	if args.URL == "" {
		return Parameters{}, &ValidationError{Field: "url", Reason: "must not be empty"}
	}
	if args.Device != "" && !validDevices[args.Device] {
		return Parameters{}, &ValidationError{Field: "device", Reason: "must be one of desktop, mobile, tablet"}
	}
	if args.Country != "" && len(args.Country) != 2 {
		return Parameters{}, &ValidationError{Field: "country", Reason: "must be a 2-letter country code"}
	}
	if args.AjaxWait < 0 {
		return Parameters{}, &ValidationError{Field: "ajax_wait", Reason: "must not be negative"}
	}
	if args.PageWait < 0 {
		return Parameters{}, &ValidationError{Field: "page_wait", Reason: "must not be negative"}
	}

	mode := args.Mode
	switch mode {
	case "":
		mode = ModeFullpage
	case ModeFullpage, ModeViewport:
	default:
		return Parameters{}, &ValidationError{Field: "mode", Reason: "must be fullpage or viewport"}
	}
	if args.Width < 0 {
		return Parameters{}, &ValidationError{Field: "width", Reason: "must be a positive integer"}
	}
	if args.Height < 0 {
		return Parameters{}, &ValidationError{Field: "height", Reason: "must be a positive integer"}
	}
	if (args.Width > 0 || args.Height > 0) && mode != ModeViewport {
		return Parameters{}, &ValidationError{Field: "width/height", Reason: "only valid with mode=viewport"}
	}

	token := creds.Token
	if capability == CapabilityJS || args.Screenshot {
		token = creds.JSToken
	}
	if args.Screenshot && token == "" {
		return Parameters{}, ErrJSTokenRequired
	}

	return Parameters{
		URL:                 args.URL,
		Token:               token,
		UserAgent:           args.UserAgent,
		Device:              args.Device,
		Country:             args.Country,
		AjaxWait:            args.AjaxWait,
		PageWait:            args.PageWait,
		Screenshot:          args.Screenshot,
		ScreenshotMode:      mode,
		ScreenshotMaxWidth:  args.Width,
		ScreenshotMaxHeight: args.Height,
	}, nil
}

// Values encodes the parameters as Crawlbase API query parameters.
// format=json is always requested so errors and screenshot URLs come back
// as structured fields rather than raw HTML.
func (p Parameters) Values() url.Values {
	v := url.Values{}
	v.Set("token", p.Token)
	v.Set("url", p.URL)
	v.Set("format", "json")
	if p.UserAgent != "" {
		v.Set("user_agent", p.UserAgent)
	}
	if p.Device != "" {
		v.Set("device", p.Device)
	}
	if p.Country != "" {
		v.Set("country", p.Country)
	}
	if p.AjaxWait > 0 {
		v.Set("ajax_wait", strconv.Itoa(p.AjaxWait))
	}
	if p.PageWait > 0 {
		v.Set("page_wait", strconv.Itoa(p.PageWait))
	}
	if p.Screenshot {
		v.Set("screenshot", "true")
		v.Set("screenshot_mode", p.ScreenshotMode)
		if p.ScreenshotMaxWidth > 0 {
			v.Set("screenshot_width", strconv.Itoa(p.ScreenshotMaxWidth))
		}
		if p.ScreenshotMaxHeight > 0 {
			v.Set("screenshot_height", strconv.Itoa(p.ScreenshotMaxHeight))
		}
	}
	return v
}
