// Package lookup implements the advisory name and surname registries on top
// of public web directories.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrRegistryUnavailable is returned when a registry answers with a server error
var ErrRegistryUnavailable = errors.New("lookup registry unavailable")

const maxPageSize = 2 << 20

// Option configures a registry client
type Option func(*client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) {
		cl.http = c
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(cl *client) {
		cl.http = &http.Client{Timeout: d}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(cl *client) {
		cl.logger = logger
	}
}

type client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func newClient(baseURL string, opts []Option) client {
	cl := client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cl)
	}
	return cl
}

// fetch downloads and parses a page. A 404 yields a nil document.
func (c client) fetch(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("lookup request",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrRegistryUnavailable, resp.StatusCode, url)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// findNode walks the tree depth-first and reports whether match accepts any node
func findNode(n *html.Node, match func(*html.Node) bool) bool {
	if n == nil {
		return false
	}
	if match(n) {
		return true
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if findNode(child, match) {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
