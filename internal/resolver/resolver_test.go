package resolver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"finitefield.org/hanko-docs/internal/config"
	"finitefield.org/hanko-docs/internal/content"
	"finitefield.org/hanko-docs/internal/markdown"
	"finitefield.org/hanko-docs/internal/metrics"
	"finitefield.org/hanko-docs/internal/nav"
	"finitefield.org/hanko-docs/internal/page"
	"finitefield.org/hanko-docs/internal/platform/observability"
	"finitefield.org/hanko-docs/internal/testutil"
)

type recordingStore struct {
	mu    sync.Mutex
	inner content.Store
	err   error
	reads []string
}

func (s *recordingStore) ReadFile(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	s.reads = append(s.reads, name)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.ReadFile(ctx, name)
}

type fakeRecorder struct {
	mu        sync.Mutex
	outcomes  []metrics.Outcome
	fallbacks []bool
	renders   int
}

func (f *fakeRecorder) IncResolve(o metrics.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, o)
}

func (f *fakeRecorder) IncFallback(found bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallbacks = append(f.fallbacks, found)
}

func (f *fakeRecorder) ObserveRender(time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders++
}

var testFiles = fstest.MapFS{
	"index.html": {Data: []byte("<p>home</p>")},
	"style.css":  {Data: []byte("body{}")},
	"guide.md": {Data: []byte(`---
title: Guide title
tocLevels: [2]
next:
  path: /install
  title: Install
---
# Guide

## Setup
`)},
	"plain.md":  {Data: []byte("# Plain page\n")},
	"broken.md": {Data: []byte("---\ntitle: [oops\n---\n# Broken\n")},
}

func testSite() config.Site {
	return config.Site{
		SiteName: "Docs",
		Lang:     "en",
		Nav:      nav.Tree{nav.Link{Title: "Guide", Path: "/guide"}},
	}
}

func newTestResolver(t *testing.T, store content.Store, rec metrics.Recorder) *Resolver {
	t.Helper()
	md := markdown.New()
	composer, err := page.NewComposer(md)
	require.NoError(t, err)
	res, err := New(Options{
		Store:    store,
		Markdown: md,
		Composer: composer,
		Site:     testSite(),
		Recorder: rec,
	})
	require.NoError(t, err)
	return res
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in       string
		want     string
		redirect bool
	}{
		{in: "/", want: "/index"},
		{in: "", want: "/index"},
		{in: "/foo", want: "/foo"},
		{in: "/foo/", want: "/foo", redirect: true},
		{in: "/a/b/", want: "/a/b", redirect: true},
		{in: "//evil.example/", want: "/evil.example", redirect: true},
		{in: "/a//", want: "/a", redirect: true},
	}
	for _, tc := range cases {
		got, redirect := Normalize(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.redirect, redirect, tc.in)
	}
}

func TestExtension(t *testing.T) {
	cases := []struct {
		in   string
		ext  string
		full string
	}{
		{in: "/index", ext: "html", full: "/index.html"},
		{in: "/guide.md", ext: "md", full: "/guide.md"},
		{in: "/v1.2/intro", ext: "html", full: "/v1.2/intro.html"},
		{in: "/archive.tar.gz", ext: "gz", full: "/archive.tar.gz"},
		{in: "/trailing.", ext: "html", full: "/trailing..html"},
	}
	for _, tc := range cases {
		ext, full := Extension(tc.in, "html")
		assert.Equal(t, tc.ext, ext, tc.in)
		assert.Equal(t, tc.full, full, tc.in)
	}
}

func TestResolveRootServesIndex(t *testing.T) {
	rec := &fakeRecorder{}
	res := newTestResolver(t, content.NewFSStore(testFiles), rec)

	resp := res.Resolve(context.Background(), "/", "https://d.example/")

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, "<p>home</p>", string(resp.Body))
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeOK}, rec.outcomes)
	assert.Empty(t, rec.fallbacks)
}

func TestResolveTrailingSlashRedirects(t *testing.T) {
	store := &recordingStore{inner: content.NewFSStore(testFiles)}
	res := newTestResolver(t, store, nil)

	resp := res.Resolve(context.Background(), "/foo/", "")

	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, "/foo", resp.Location)
	assert.Equal(t, "302: Found", string(resp.Body))
	assert.Empty(t, store.reads)
}

func TestResolveTrailingSlashRedirectStaysOnSite(t *testing.T) {
	res := newTestResolver(t, content.NewFSStore(testFiles), nil)

	cases := map[string]string{
		"//evil.example/":    "/evil.example",
		"///evil.example/x/": "/evil.example/x",
		"/docs//":            "/docs",
		"//":                 "/",
	}
	for in, want := range cases {
		resp := res.Resolve(context.Background(), in, "")
		assert.Equal(t, http.StatusFound, resp.Status, in)
		assert.Equal(t, want, resp.Location, in)
		assert.False(t, strings.HasPrefix(resp.Location, "//"), in)
	}
}

func TestResolveFallsBackToMarkdown(t *testing.T) {
	rec := &fakeRecorder{}
	store := &recordingStore{inner: content.NewFSStore(testFiles)}
	res := newTestResolver(t, store, rec)

	resp := res.Resolve(context.Background(), "/guide", "https://d.example/guide")

	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, []string{"/guide.html", "/guide.md"}, store.reads)
	assert.Equal(t, []bool{true}, rec.fallbacks)
	assert.Equal(t, 1, rec.renders)

	doc := testutil.ParseHTML(t, resp.Body)
	assert.Equal(t, "Guide title | Docs", doc.Find("title").Text())
	assert.Equal(t, "#setup", doc.Find("#table-of-contents a").AttrOr("href", ""))
	assert.Equal(t, "/install", doc.Find("#neighbors #next").AttrOr("href", ""))
	assert.Equal(t, "Guide", doc.Find("#header-nav a").Text())
	assert.Equal(t, 1, doc.Find("main h1#guide").Length())
}

func TestResolveMarkdownWithoutFrontMatter(t *testing.T) {
	res := newTestResolver(t, content.NewFSStore(testFiles), nil)

	resp := res.Resolve(context.Background(), "/plain", "https://d.example/plain")

	require.Equal(t, http.StatusOK, resp.Status)
	doc := testutil.ParseHTML(t, resp.Body)
	assert.Equal(t, "Plain page | Docs", doc.Find("title").Text())
	assert.Equal(t, 0, doc.Find("#table-of-contents").Length())
	assert.Equal(t, 0, doc.Find("#neighbors").Length())
}

func TestResolveSourceExtensionIsServedRaw(t *testing.T) {
	rec := &fakeRecorder{}
	res := newTestResolver(t, content.NewFSStore(testFiles), rec)

	resp := res.Resolve(context.Background(), "/plain.md", "")

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.ContentType)
	assert.Equal(t, "# Plain page\n", string(resp.Body))
	assert.Zero(t, rec.renders)
	assert.Empty(t, rec.fallbacks)
}

func TestResolveSourceWithFrontMatterIsServedRaw(t *testing.T) {
	rec := &fakeRecorder{}
	res := newTestResolver(t, content.NewFSStore(testFiles), rec)

	resp := res.Resolve(context.Background(), "/guide.md", "")

	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, string(testFiles["guide.md"].Data), string(resp.Body))
	assert.NotContains(t, string(resp.Body), "<!DOCTYPE html>")
	assert.Zero(t, rec.renders)
}

func TestResolveStaticAsset(t *testing.T) {
	res := newTestResolver(t, content.NewFSStore(testFiles), nil)

	resp := res.Resolve(context.Background(), "/style.css", "")

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/css; charset=utf-8", resp.ContentType)
	assert.Equal(t, "body{}", string(resp.Body))
}

func TestResolveUnknownExtension(t *testing.T) {
	rec := &fakeRecorder{}
	store := &recordingStore{inner: content.NewFSStore(testFiles)}
	res := newTestResolver(t, store, rec)

	resp := res.Resolve(context.Background(), "/file.unknownext", "")

	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "400: Bad Request", string(resp.Body))
	assert.Empty(t, store.reads, "no file access for unsupported types")
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeBadRequest}, rec.outcomes)
}

func TestResolveNotFound(t *testing.T) {
	t.Run("default extension tries the source once", func(t *testing.T) {
		rec := &fakeRecorder{}
		store := &recordingStore{inner: content.NewFSStore(testFiles)}
		res := newTestResolver(t, store, rec)

		resp := res.Resolve(context.Background(), "/missing", "")

		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "404: Not Found", string(resp.Body))
		assert.Equal(t, []string{"/missing.html", "/missing.md"}, store.reads)
		assert.Equal(t, []bool{false}, rec.fallbacks)
		assert.Equal(t, []metrics.Outcome{metrics.OutcomeNotFound}, rec.outcomes)
	})

	t.Run("other extensions do not fall back", func(t *testing.T) {
		store := &recordingStore{inner: content.NewFSStore(testFiles)}
		res := newTestResolver(t, store, nil)

		resp := res.Resolve(context.Background(), "/missing.css", "")

		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, []string{"/missing.css"}, store.reads)
	})
}

func TestResolveInternalErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := observability.WithLogger(context.Background(), zap.New(core))

	t.Run("store failure", func(t *testing.T) {
		rec := &fakeRecorder{}
		store := &recordingStore{inner: content.NewFSStore(testFiles), err: errors.New("disk on fire")}
		res := newTestResolver(t, store, rec)

		resp := res.Resolve(ctx, "/index", "")

		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, "500: Internal Server Error", string(resp.Body))
		assert.Equal(t, []string{"/index.html"}, store.reads, "only not-found triggers the fallback")
		assert.Equal(t, []metrics.Outcome{metrics.OutcomeInternal}, rec.outcomes)
	})

	t.Run("broken front matter", func(t *testing.T) {
		res := newTestResolver(t, content.NewFSStore(testFiles), nil)

		resp := res.Resolve(ctx, "/broken", "")

		assert.Equal(t, http.StatusInternalServerError, resp.Status)
	})

	errorLogs := logs.FilterMessage("resolve failed").All()
	require.Len(t, errorLogs, 2)
	assert.Equal(t, zapcore.ErrorLevel, errorLogs[0].Level)
	assert.Equal(t, "/index", errorLogs[0].ContextMap()["path"])
}

func TestResolveNotFoundIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := observability.WithLogger(context.Background(), zap.New(core))
	res := newTestResolver(t, content.NewFSStore(testFiles), nil)

	res.Resolve(ctx, "/nowhere", "")

	entries := logs.FilterMessage("content not found").All()
	require.Len(t, entries, 1)
	assert.True(t, strings.Contains(entries[0].ContextMap()["error"].(string), "/nowhere.md"))
}

func TestResolveIsIndependentPerRequest(t *testing.T) {
	res := newTestResolver(t, content.NewFSStore(testFiles), nil)
	want := res.Resolve(context.Background(), "/guide", "https://d.example/guide")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := res.Resolve(context.Background(), "/guide", "https://d.example/guide")
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestDefaultTypes(t *testing.T) {
	types := DefaultTypes()

	got, ok := types.TypeByExtension("md")
	assert.True(t, ok)
	assert.Equal(t, "text/markdown; charset=utf-8", got)

	got, ok = types.TypeByExtension("HTML")
	assert.True(t, ok)
	assert.Equal(t, "text/html; charset=utf-8", got)

	_, ok = types.TypeByExtension("unknownext")
	assert.False(t, ok)
	_, ok = types.TypeByExtension("")
	assert.False(t, ok)
}
