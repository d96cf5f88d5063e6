package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"finitefield.org/hanko-docs/internal/nav"
)

const (
	DefaultSiteName = "hanko-docs"
	DefaultLang     = "en"
)

// Site holds the site-wide settings read from the site file. It is decoded
// once at startup and shared read-only afterwards.
type Site struct {
	SiteName            string   `yaml:"siteName"`
	Description         string   `yaml:"description"`
	Favicon             string   `yaml:"favicon"`
	Image               string   `yaml:"image"`
	Twitter             string   `yaml:"twitter"`
	Lang                string   `yaml:"lang"`
	RemoveDefaultStyles bool     `yaml:"removeDefaultStyles"`
	TocLevels           []int    `yaml:"tocLevels"`
	BottomHead          string   `yaml:"bottomHead"`
	BottomBody          string   `yaml:"bottomBody"`
	Nav                 nav.Tree `yaml:"nav"`
}

// DefaultSite returns the settings used when no site file exists.
func DefaultSite() Site {
	return Site{SiteName: DefaultSiteName, Lang: DefaultLang}
}

// LoadSite reads the site file at path. A missing file yields DefaultSite.
func LoadSite(path string) (Site, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSite(), nil
	}
	if err != nil {
		return Site{}, fmt.Errorf("config: read site file %s: %w", path, err)
	}
	return ParseSite(raw)
}

// ParseSite decodes site YAML and fills unset names with defaults.
func ParseSite(raw []byte) (Site, error) {
	var site Site
	if err := yaml.Unmarshal(raw, &site); err != nil {
		return Site{}, fmt.Errorf("config: decode site file: %w", err)
	}
	if site.SiteName == "" {
		site.SiteName = DefaultSiteName
	}
	if site.Lang == "" {
		site.Lang = DefaultLang
	}
	lang, err := CanonicalLang(site.Lang)
	if err != nil {
		return Site{}, err
	}
	site.Lang = lang
	return site, nil
}

// CanonicalLang normalises a BCP 47 tag, accepting "_" as separator.
func CanonicalLang(tag string) (string, error) {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("config: invalid lang %q: %w", tag, err)
	}
	return parsed.String(), nil
}
