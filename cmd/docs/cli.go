package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"finitefield.org/hanko-docs/internal/config"
	"finitefield.org/hanko-docs/internal/content"
	"finitefield.org/hanko-docs/internal/httpserver"
	"finitefield.org/hanko-docs/internal/markdown"
	"finitefield.org/hanko-docs/internal/metrics"
	"finitefield.org/hanko-docs/internal/page"
	"finitefield.org/hanko-docs/internal/platform/observability"
	"finitefield.org/hanko-docs/internal/resolver"
)

const shutdownTimeout = 10 * time.Second

// CLI holds the global flags. Flags take precedence over HANKO_DOCS_* variables.
type CLI struct {
	EnvFile    string `name:"env-file" help:"Dotenv file with HANKO_DOCS_* settings" default:".env"`
	ContentDir string `name:"content-dir" help:"Directory holding the pages"`
	SiteFile   string `name:"site-file" help:"Site settings file (YAML)"`
	LogLevel   string `name:"log-level" help:"Log level (debug, info, warn, error)"`

	Serve  ServeCmd  `cmd:"" default:"withargs" help:"Serve the documentation site"`
	Render RenderCmd `cmd:"" help:"Render one markdown file to stdout"`
}

// ServeCmd runs the HTTP server until SIGINT or SIGTERM.
type ServeCmd struct {
	Addr      string `help:"Listen address"`
	BaseURL   string `name:"base-url" help:"Public origin used for canonical page URLs"`
	NoMetrics bool   `name:"no-metrics" help:"Disable the /metrics endpoint"`
}

// RenderCmd composes a single page the way the server would.
type RenderCmd struct {
	File string `arg:"" help:"Markdown file to render" type:"existingfile"`
	URL  string `name:"url" help:"Page URL used for metadata" default:"http://localhost/"`

	out io.Writer
}

func (c *CLI) loadConfig(extra map[string]string) (config.Config, error) {
	env := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			env[key] = value
		}
	}
	set("HANKO_DOCS_CONTENT_DIR", c.ContentDir)
	set("HANKO_DOCS_SITE_FILE", c.SiteFile)
	set("HANKO_DOCS_LOG_LEVEL", c.LogLevel)
	for k, v := range extra {
		set(k, v)
	}
	return config.Load(config.WithEnvFile(c.EnvFile), config.WithEnvMap(env))
}

// components are the collaborators shared by both commands.
type components struct {
	cfg      config.Config
	logger   *zap.Logger
	resolver *resolver.Resolver
	registry *prom.Registry
}

func build(cfg config.Config) (*components, error) {
	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	site, err := config.LoadSite(cfg.Content.SiteFile)
	if err != nil {
		return nil, err
	}

	md := markdown.New()
	composer, err := page.NewComposer(md)
	if err != nil {
		return nil, err
	}

	c := &components{cfg: cfg, logger: logger}
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Features.EnableMetrics {
		c.registry = prom.NewRegistry()
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorder(c.registry)
	}

	c.resolver, err = resolver.New(resolver.Options{
		Store:      content.NewDirStore(cfg.Content.Dir),
		Markdown:   md,
		Composer:   composer,
		Site:       site,
		DefaultExt: cfg.Content.DefaultExt,
		SourceExt:  cfg.Content.SourceExt,
		Recorder:   recorder,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ServeCmd) Run(cli *CLI) error {
	extra := map[string]string{
		"HANKO_DOCS_ADDR":     s.Addr,
		"HANKO_DOCS_BASE_URL": s.BaseURL,
	}
	if s.NoMetrics {
		extra["HANKO_DOCS_METRICS"] = "false"
	}
	cfg, err := cli.loadConfig(extra)
	if err != nil {
		return err
	}
	c, err := build(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.logger.Sync() }()

	var metricsHandler http.Handler
	if c.registry != nil {
		metricsHandler = metrics.HTTPHandler(c.registry)
	}
	srv := httpserver.New(httpserver.Config{
		Address:      cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Pages:        resolver.NewHandler(c.resolver, cfg.Server.BaseURL),
		Metrics:      metricsHandler,
		Logger:       c.logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, c.logger)
}

func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("docs server listening", zap.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}

func (r *RenderCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig(map[string]string{"HANKO_DOCS_METRICS": "false"})
	if err != nil {
		return err
	}
	c, err := build(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.logger.Sync() }()

	data, err := os.ReadFile(r.File)
	if err != nil {
		return err
	}
	html, err := c.resolver.Render(data, r.URL)
	if err != nil {
		return fmt.Errorf("render %s: %w", r.File, err)
	}

	out := r.out
	if out == nil {
		out = os.Stdout
	}
	_, err = out.Write(html)
	return err
}
