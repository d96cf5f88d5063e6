package resolver

import (
	"net/http"
	"net/url"
	"strings"
)

// Handler adapts a Resolver to net/http.
type Handler struct {
	resolver *Resolver
	baseURL  string
}

// NewHandler serves every request through res. baseURL, when set, is the
// origin used for page URLs instead of the request's scheme and host.
func NewHandler(res *Resolver, baseURL string) *Handler {
	return &Handler{resolver: res, baseURL: strings.TrimRight(baseURL, "/")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h.resolver.Resolve(r.Context(), r.URL.Path, h.pageURL(r))

	header := w.Header()
	if resp.Location != "" {
		header.Set("Location", (&url.URL{Path: resp.Location}).EscapedPath())
	}
	if resp.ContentType != "" {
		header.Set("Content-Type", resp.ContentType)
	}
	if resp.Status != http.StatusOK {
		header.Set("X-Content-Type-Options", "nosniff")
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// pageURL reconstructs the absolute URL the client asked for.
func (h *Handler) pageURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL + r.URL.Path
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host + r.URL.Path
}
