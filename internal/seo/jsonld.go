package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url, description string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if description != "" {
		m["description"] = description
	}
	return m
}

// Article returns a minimal Article schema published by the site.
func Article(headline, url, description, imageURL, publisher string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Article",
		"headline": headline,
	}
	if url != "" {
		m["url"] = url
		m["mainEntityOfPage"] = url
	}
	if description != "" {
		m["description"] = description
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if publisher != "" {
		m["publisher"] = map[string]any{"@type": "Organization", "name": publisher}
	}
	return m
}
