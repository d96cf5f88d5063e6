// Package seo derives the head metadata of a documentation page.
package seo

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page types used for og:type and the JSON-LD schema.
const (
	TypeWebsite = "website"
	TypeArticle = "article"
)

var siteRootPattern = regexp.MustCompile(`^https?://[^/]+/?$`)

// OpenGraph holds the og:* properties of a page.
type OpenGraph struct {
	URL         string
	Type        string
	Title       string
	Description string
	SiteName    string
	Image       string
}

// Twitter holds the twitter:* card properties.
type Twitter struct {
	Card string
	Site string
}

// Meta is the complete head metadata of a page. JSONLD is the marshalled
// schema.org payload.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Favicon     string
	OG          OpenGraph
	Twitter     Twitter
	JSONLD      string
}

// PageType reports "website" for a bare origin URL and "article" otherwise.
func PageType(pageURL string) string {
	if siteRootPattern.MatchString(pageURL) {
		return TypeWebsite
	}
	return TypeArticle
}

// Title joins the page title and site name. An empty title or one equal to
// the site name collapses to the site name alone.
func Title(title, siteName string) string {
	if title == "" || title == siteName {
		return siteName
	}
	return title + " | " + siteName
}

// FirstHeading returns the text of the first <h1> in content, markup removed.
func FirstHeading(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	depth := 0
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.H1 {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.H1 && depth > 0 {
				return strings.TrimSpace(b.String())
			}
		case html.TextToken:
			if depth > 0 {
				b.Write(z.Text())
			}
		}
	}
}

// Build assembles the head metadata for a page. title is the configured page
// title and may be empty, in which case the first heading of content is used.
func Build(title, content, pageURL, siteName, description, image, favicon, twitter string) Meta {
	if title == "" {
		title = FirstHeading(content)
	}
	full := Title(title, siteName)
	kind := PageType(pageURL)

	var ld map[string]any
	if kind == TypeWebsite {
		ld = WebSite(siteName, pageURL, description)
	} else {
		ld = Article(full, pageURL, description, image, siteName)
	}

	return Meta{
		Title:       full,
		Description: description,
		Canonical:   pageURL,
		Favicon:     favicon,
		OG: OpenGraph{
			URL:         pageURL,
			Type:        kind,
			Title:       full,
			Description: description,
			SiteName:    siteName,
			Image:       image,
		},
		Twitter: Twitter{Card: "summary", Site: twitter},
		JSONLD:  JSON(ld),
	}
}
