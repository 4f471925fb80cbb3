package lookup

import (
	"context"
	"net/url"
	"strings"

	"github.com/covidtrack/registry/internal/domain/patient"
	"golang.org/x/net/html"
)

// HTTPNameRegistry checks first names against a name directory. A name exists
// when the search page links to it by its exact spelling.
type HTTPNameRegistry struct {
	client
}

// NewHTTPNameRegistry creates a registry querying baseURL/search/?text=NAME
func NewHTTPNameRegistry(baseURL string, opts ...Option) *HTTPNameRegistry {
	return &HTTPNameRegistry{client: newClient(strings.TrimRight(baseURL, "/"), opts)}
}

// NameExists implements patient.NameRegistry
func (r *HTTPNameRegistry) NameExists(ctx context.Context, name string) (bool, error) {
	doc, err := r.fetch(ctx, r.baseURL+"/search/?text="+url.QueryEscape(name))
	if err != nil || doc == nil {
		return false, err
	}
	return findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "a" && strings.TrimSpace(textContent(n)) == name
	}), nil
}

// HTTPSurnameRegistry checks surnames against a surname directory. A surname
// exists when its page carries a version-number badge.
type HTTPSurnameRegistry struct {
	client
}

// NewHTTPSurnameRegistry creates a registry querying baseURL/names/order/SURNAME
func NewHTTPSurnameRegistry(baseURL string, opts ...Option) *HTTPSurnameRegistry {
	return &HTTPSurnameRegistry{client: newClient(strings.TrimRight(baseURL, "/"), opts)}
}

// SurnameExists implements patient.SurnameRegistry
func (r *HTTPSurnameRegistry) SurnameExists(ctx context.Context, surname string) (bool, error) {
	doc, err := r.fetch(ctx, r.baseURL+"/names/order/"+url.PathEscape(strings.ToLower(surname)))
	if err != nil || doc == nil {
		return false, err
	}
	return findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "span" && hasClass(n, "version-number")
	}), nil
}

var (
	_ patient.NameRegistry    = (*HTTPNameRegistry)(nil)
	_ patient.SurnameRegistry = (*HTTPSurnameRegistry)(nil)
)
