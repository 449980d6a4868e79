// Package scrape fetches search result pages, news feeds and article pages.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"golang.org/x/net/html/charset"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Renderer returns the HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url, userAgent string) (string, error)
}

// HTTPRenderer fetches pages with a plain GET request.
type HTTPRenderer struct {
	client *http.Client
}

// NewHTTPRenderer creates a renderer. A nil client uses a client with a 15s
// timeout.
func NewHTTPRenderer(client *http.Client) *HTTPRenderer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPRenderer{client: client}
}

// Render implements Renderer.
func (r *HTTPRenderer) Render(ctx context.Context, url, userAgent string) (string, error) {
	body, err := get(ctx, r.client, url, userAgent)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// get performs a browser-like GET and returns the body decoded to UTF-8.
func get(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// ChromeRenderer loads pages in headless Chrome so that scripted result
// markup is present in the returned HTML.
type ChromeRenderer struct {
	remoteURL string
	timeout   time.Duration
}

// NewChromeRenderer creates a renderer. With a remoteURL (a DevTools
// websocket or http endpoint) it attaches to a running browser; otherwise
// it launches a local one per render.
func NewChromeRenderer(remoteURL string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{remoteURL: remoteURL, timeout: timeout}
}

// Render implements Renderer.
func (r *ChromeRenderer) Render(ctx context.Context, url, userAgent string) (string, error) {
	ctx, cancelTimeout := context.WithTimeout(ctx, r.timeout)
	defer cancelTimeout()

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if r.remoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, r.remoteURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	}
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var html string
	if err := chromedp.Run(taskCtx, chromeActions(url, userAgent, &html)...); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// chromeActions loads url and captures its markup into html. The user agent
// is overridden per tab so that attached remote browsers send it too.
func chromeActions(url, userAgent string, html *string) []chromedp.Action {
	var actions []chromedp.Action
	if userAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(userAgent))
	}
	return append(actions,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", html, chromedp.ByQuery),
	)
}

var (
	_ Renderer = (*HTTPRenderer)(nil)
	_ Renderer = (*ChromeRenderer)(nil)
)
