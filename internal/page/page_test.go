package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"finitefield.org/hanko-docs/internal/config"
	"finitefield.org/hanko-docs/internal/nav"
)

func testSite() config.Site {
	return config.Site{
		SiteName:    "Docs",
		Description: "Site description",
		Favicon:     "/favicon.ico",
		Image:       "/og.png",
		Twitter:     "@docs",
		Lang:        "en",
		TocLevels:   []int{2, 3},
		BottomHead:  "<meta name=\"x\" content=\"site\">",
		Nav:         nav.Tree{nav.Link{Title: "Home", Path: "/index"}},
	}
}

func decodeMeta(t *testing.T, src string) Meta {
	t.Helper()
	var meta Meta
	require.NoError(t, yaml.Unmarshal([]byte(src), &meta))
	return meta
}

func TestMergeWithoutFrontMatter(t *testing.T) {
	cfg := Merge(testSite(), Meta{})

	assert.Equal(t, FromSite(testSite()), cfg)
	assert.Equal(t, "", cfg.Title)
	assert.Nil(t, cfg.Prev)
	assert.Nil(t, cfg.Next)
}

func TestMergePresenceOverrides(t *testing.T) {
	meta := decodeMeta(t, `
title: Install
description: ""
removeDefaultStyles: true
tocLevels: []
bottomHead: ""
lang: en_gb
prev:
  path: /index
  title: Home
`)

	cfg := Merge(testSite(), meta)

	assert.Equal(t, "Install", cfg.Title)
	assert.Equal(t, "", cfg.Description, "present empty value overrides")
	assert.Equal(t, "", cfg.BottomHead)
	assert.True(t, cfg.RemoveDefaultStyles)
	assert.Empty(t, cfg.TocLevels)
	assert.Equal(t, "/favicon.ico", cfg.Favicon, "absent value keeps site setting")
	assert.Equal(t, "Docs", cfg.SiteName)
	assert.Equal(t, "en-GB", cfg.Lang)
	require.NotNil(t, cfg.Prev)
	assert.Equal(t, Link{Path: "/index", Title: "Home"}, *cfg.Prev)
	assert.Nil(t, cfg.Next)
}

func TestMergeDoesNotMutateSite(t *testing.T) {
	site := testSite()
	levels := []int{4}
	Merge(site, Meta{TocLevels: &levels})

	assert.Equal(t, []int{2, 3}, site.TocLevels)
}
