package resolver

import (
	"mime"
	"strings"
)

// TypeLookup maps a file extension (without the dot) to a MIME type.
type TypeLookup interface {
	TypeByExtension(ext string) (string, bool)
}

// MIMETypes resolves extensions through the mime package, consulting its own
// table first.
type MIMETypes struct {
	overrides map[string]string
}

// DefaultTypes returns the lookup used by the server.
func DefaultTypes() MIMETypes {
	return MIMETypes{overrides: map[string]string{
		"md":       "text/markdown; charset=utf-8",
		"markdown": "text/markdown; charset=utf-8",
		"txt":      "text/plain; charset=utf-8",
		"ico":      "image/x-icon",
		"yaml":     "application/yaml",
		"yml":      "application/yaml",
	}}
}

// TypeByExtension reports the MIME type registered for ext.
func (m MIMETypes) TypeByExtension(ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return "", false
	}
	if t, ok := m.overrides[ext]; ok {
		return t, true
	}
	t := mime.TypeByExtension("." + ext)
	return t, t != ""
}
