// Package page merges site and page settings and composes the final HTML document.
package page

import (
	"finitefield.org/hanko-docs/internal/config"
	"finitefield.org/hanko-docs/internal/nav"
)

// Link points at a neighbouring page.
type Link struct {
	Path  string `yaml:"path"`
	Title string `yaml:"title"`
}

// Meta is the per-page front matter. A nil field was absent from the front
// matter and leaves the site value untouched.
type Meta struct {
	SiteName            *string `yaml:"siteName"`
	Title               *string `yaml:"title"`
	Description         *string `yaml:"description"`
	Favicon             *string `yaml:"favicon"`
	Image               *string `yaml:"image"`
	Twitter             *string `yaml:"twitter"`
	Lang                *string `yaml:"lang"`
	RemoveDefaultStyles *bool   `yaml:"removeDefaultStyles"`
	TocLevels           *[]int  `yaml:"tocLevels"`
	BottomHead          *string `yaml:"bottomHead"`
	BottomBody          *string `yaml:"bottomBody"`
	Prev                *Link   `yaml:"prev"`
	Next                *Link   `yaml:"next"`
}

// Config is the merged view of one page, built fresh for every request.
type Config struct {
	SiteName            string
	Title               string
	Description         string
	Favicon             string
	Image               string
	Twitter             string
	Lang                string
	RemoveDefaultStyles bool
	TocLevels           []int
	BottomHead          string
	BottomBody          string
	Nav                 []nav.Node
	Prev                *Link
	Next                *Link
}

// FromSite returns the page configuration of a page without front matter.
func FromSite(site config.Site) Config {
	return Config{
		SiteName:            site.SiteName,
		Description:         site.Description,
		Favicon:             site.Favicon,
		Image:               site.Image,
		Twitter:             site.Twitter,
		Lang:                site.Lang,
		RemoveDefaultStyles: site.RemoveDefaultStyles,
		TocLevels:           site.TocLevels,
		BottomHead:          site.BottomHead,
		BottomBody:          site.BottomBody,
		Nav:                 site.Nav,
	}
}

// Merge applies every field present in meta over the site settings.
func Merge(site config.Site, meta Meta) Config {
	cfg := FromSite(site)
	setString(&cfg.SiteName, meta.SiteName)
	setString(&cfg.Title, meta.Title)
	setString(&cfg.Description, meta.Description)
	setString(&cfg.Favicon, meta.Favicon)
	setString(&cfg.Image, meta.Image)
	setString(&cfg.Twitter, meta.Twitter)
	if meta.Lang != nil {
		cfg.Lang = *meta.Lang
		if lang, err := config.CanonicalLang(*meta.Lang); err == nil {
			cfg.Lang = lang
		}
	}
	setString(&cfg.BottomHead, meta.BottomHead)
	setString(&cfg.BottomBody, meta.BottomBody)
	if meta.RemoveDefaultStyles != nil {
		cfg.RemoveDefaultStyles = *meta.RemoveDefaultStyles
	}
	if meta.TocLevels != nil {
		cfg.TocLevels = *meta.TocLevels
	}
	cfg.Prev = meta.Prev
	cfg.Next = meta.Next
	return cfg
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
