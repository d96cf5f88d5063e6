// Package resolver maps request paths onto content files and turns the
// outcome into an HTTP response.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/hanko-docs/internal/config"
	"finitefield.org/hanko-docs/internal/content"
	"finitefield.org/hanko-docs/internal/markdown"
	"finitefield.org/hanko-docs/internal/metrics"
	"finitefield.org/hanko-docs/internal/page"
	"finitefield.org/hanko-docs/internal/platform/httpx"
	"finitefield.org/hanko-docs/internal/platform/observability"
)

var (
	// ErrNotFound reports that no file backs the request. It matches fs.ErrNotExist.
	ErrNotFound = fmt.Errorf("resolver: not found: %w", fs.ErrNotExist)
	// ErrUnsupportedType reports an extension without a known MIME type.
	ErrUnsupportedType = errors.New("resolver: unsupported type")
)

// Composer renders page content into a complete document.
type Composer interface {
	Compose(content, pageURL string, cfg page.Config) (string, error)
}

// Options wires the resolver's collaborators.
type Options struct {
	Store      content.Store
	Markdown   markdown.Converter
	Composer   Composer
	Site       config.Site
	Types      TypeLookup
	DefaultExt string
	SourceExt  string
	Recorder   metrics.Recorder
}

// Resolver serves content files. It keeps no per-request state and is safe
// for concurrent use.
type Resolver struct {
	store      content.Store
	md         markdown.Converter
	composer   Composer
	site       config.Site
	types      TypeLookup
	defaultExt string
	sourceExt  string
	recorder   metrics.Recorder
}

// New validates opts and builds a Resolver.
func New(opts Options) (*Resolver, error) {
	if opts.Store == nil {
		return nil, errors.New("resolver: store is required")
	}
	if opts.Markdown == nil {
		return nil, errors.New("resolver: markdown converter is required")
	}
	if opts.Composer == nil {
		return nil, errors.New("resolver: composer is required")
	}
	if opts.Types == nil {
		opts.Types = DefaultTypes()
	}
	if opts.DefaultExt == "" {
		opts.DefaultExt = "html"
	}
	if opts.SourceExt == "" {
		opts.SourceExt = "md"
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Resolver{
		store:      opts.Store,
		md:         opts.Markdown,
		composer:   opts.Composer,
		site:       opts.Site,
		types:      opts.Types,
		defaultExt: opts.DefaultExt,
		sourceExt:  opts.SourceExt,
		recorder:   opts.Recorder,
	}, nil
}

// Request is the resolved form of one request path.
type Request struct {
	// Path is the normalized pathname including its extension.
	Path     string
	Ext      string
	MIMEType string
	// File is the store name that backs Path.
	File string
}

// Response is the outcome of resolving a request.
type Response struct {
	Status      int
	ContentType string
	Location    string
	Body        []byte
}

// Normalize applies the root and trailing-slash rules. It returns the
// normalized path, or the redirect target when redirect is true.
func Normalize(pathname string) (string, bool) {
	switch {
	case pathname == "" || pathname == "/":
		return "/index", false
	case strings.HasSuffix(pathname, "/"):
		// Collapse leading slashes so "//host/" never becomes a
		// protocol-relative Location.
		return "/" + strings.Trim(pathname, "/"), true
	default:
		return pathname, false
	}
}

// Extension returns the extension of the final segment of pathname and the
// pathname with defaultExt appended when it has none.
func Extension(pathname, defaultExt string) (string, string) {
	tail := pathname[strings.LastIndex(pathname, "/")+1:]
	if i := strings.LastIndex(tail, "."); i >= 0 && i < len(tail)-1 {
		return tail[i+1:], pathname
	}
	return defaultExt, pathname + "." + defaultExt
}

// Prepare resolves pathname into a Request without touching the store. It
// fails with ErrUnsupportedType when the extension has no MIME type.
func (r *Resolver) Prepare(pathname string) (Request, error) {
	ext, full := Extension(pathname, r.defaultExt)
	mimeType, ok := r.types.TypeByExtension(ext)
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return Request{Path: full, Ext: ext, MIMEType: mimeType, File: full}, nil
}

// Resolve answers a request for pathname. pageURL is the absolute URL of the
// page as seen by the client.
func (r *Resolver) Resolve(ctx context.Context, pathname, pageURL string) Response {
	ctx, span := observability.Tracer().Start(ctx, "resolver.Resolve")
	defer span.End()
	logger := observability.FromContext(ctx).With(zap.String("path", observability.SanitizePath(pathname)))

	normalized, redirect := Normalize(pathname)
	if redirect {
		r.recorder.IncResolve(metrics.OutcomeRedirect)
		span.SetAttributes(attribute.String("resolver.outcome", string(metrics.OutcomeRedirect)))
		return statusResponse(http.StatusFound, normalized)
	}

	req, err := r.Prepare(normalized)
	if err != nil {
		return r.fail(ctx, logger, err)
	}
	span.SetAttributes(
		attribute.String("resolver.file", req.File),
		attribute.String("resolver.mime", req.MIMEType),
	)

	body, err := r.read(ctx, req, pageURL)
	if err != nil {
		return r.fail(ctx, logger, err)
	}

	r.recorder.IncResolve(metrics.OutcomeOK)
	span.SetAttributes(attribute.String("resolver.outcome", string(metrics.OutcomeOK)))
	return Response{Status: http.StatusOK, ContentType: req.MIMEType, Body: body}
}

// read loads the requested file as stored. Only a missing document with the
// default extension is retried, once, against its markdown source, which is
// rendered.
func (r *Resolver) read(ctx context.Context, req Request, pageURL string) ([]byte, error) {
	body, err := r.load(ctx, req.File, false, pageURL)
	if err == nil || !errors.Is(err, ErrNotFound) || req.Ext != r.defaultExt {
		return body, err
	}

	source := strings.TrimSuffix(req.File, "."+r.defaultExt) + "." + r.sourceExt
	body, err = r.load(ctx, source, true, pageURL)
	r.recorder.IncFallback(err == nil)
	return body, err
}

func (r *Resolver) load(ctx context.Context, file string, parse bool, pageURL string) ([]byte, error) {
	ctx, span := observability.Tracer().Start(ctx, "resolver.load")
	defer span.End()
	span.SetAttributes(attribute.String("resolver.file", file), attribute.Bool("resolver.parse", parse))

	data, err := r.store.ReadFile(ctx, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, file)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("resolver: read %s: %w", file, err)
	}
	if !parse {
		return data, nil
	}

	out, err := r.Render(data, pageURL)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("resolver: render %s: %w", file, err)
	}
	return out, nil
}

// Render turns markdown source into a complete page, applying its front
// matter over the site settings.
func (r *Resolver) Render(data []byte, pageURL string) ([]byte, error) {
	start := time.Now()
	defer func() { r.recorder.ObserveRender(time.Since(start)) }()

	doc, err := r.md.Convert(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	if err != nil {
		return nil, err
	}
	var meta page.Meta
	if err := doc.DecodeMeta(&meta); err != nil {
		return nil, err
	}
	html, err := r.composer.Compose(doc.Content, pageURL, page.Merge(r.site, meta))
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

func (r *Resolver) fail(ctx context.Context, logger *zap.Logger, err error) Response {
	status, outcome := classify(err)
	r.recorder.IncResolve(outcome)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("resolver.outcome", string(outcome)))
	switch status {
	case http.StatusInternalServerError:
		span.SetStatus(codes.Error, err.Error())
		logger.Error("resolve failed", zap.Error(err))
	case http.StatusNotFound:
		logger.Info("content not found", zap.Error(err))
	default:
		logger.Info("unsupported content type", zap.Error(err))
	}
	return statusResponse(status, "")
}

func classify(err error) (int, metrics.Outcome) {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return http.StatusBadRequest, metrics.OutcomeBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, metrics.OutcomeNotFound
	default:
		return http.StatusInternalServerError, metrics.OutcomeInternal
	}
}

func statusResponse(status int, location string) Response {
	return Response{
		Status:      status,
		ContentType: "text/plain; charset=utf-8",
		Location:    location,
		Body:        []byte(httpx.StatusBody(status)),
	}
}
