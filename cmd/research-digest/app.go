// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-digest/internal/archive"
	"github.com/pdiddy/research-digest/internal/completion"
	"github.com/pdiddy/research-digest/internal/metrics"
	"github.com/pdiddy/research-digest/internal/pipeline"
	"github.com/pdiddy/research-digest/internal/render"
	"github.com/pdiddy/research-digest/internal/search"
	"github.com/pdiddy/research-digest/internal/summarize"
	"github.com/pdiddy/research-digest/pkg/types"
)

// app holds everything a digest run needs. It is built once per process,
// so the local model is loaded a single time and reused by every run.
type app struct {
	cfg       types.PipelineConfig
	pipeline  *pipeline.Pipeline
	engine    *summarize.OllamaEngine
	renderers []render.Renderer
	store     *archive.Store
	metrics   *metrics.Collector
	logger    *zap.Logger
}

func newApp(ctx context.Context, cfg types.PipelineConfig, logger *zap.Logger) (*app, error) {
	client, err := completion.New(cfg.Completion, nil)
	if err != nil {
		return nil, err
	}
	backend, err := search.NewBackend(cfg.Search.Backend, &http.Client{Timeout: cfg.Search.Timeout}, cfg.Search)
	if err != nil {
		return nil, err
	}
	renderers, err := render.FromFormats(cfg.Output.Formats)
	if err != nil {
		return nil, err
	}

	engine := summarize.NewOllamaEngine(cfg.Summarize)
	if err := engine.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading summarization model %s from %s: %w", cfg.Summarize.Model, cfg.Summarize.EngineURL, err)
	}

	a := &app{
		cfg:       cfg,
		engine:    engine,
		renderers: renderers,
		metrics:   metrics.NewCollector(),
		logger:    logger,
	}
	a.pipeline = pipeline.New(cfg, pipeline.Deps{
		Completion: client,
		Backend:    backend,
		Engine:     engine,
		Logger:     logger,
		Metrics:    a.metrics,
	})

	if cfg.Output.ArchivePath != "" {
		store, err := archive.Open(cfg.Output.ArchivePath)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	return a, nil
}

func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// digest runs the pipeline for topic, then writes the configured
// artifacts and archives the report. Output failures are returned
// alongside a valid report.
func (a *app) digest(ctx context.Context, topic string) (*types.Report, []string, error) {
	report, err := a.pipeline.Run(ctx, topic)
	if err != nil {
		return nil, nil, err
	}

	var errs []error
	paths, err := render.RenderAll(ctx, a.cfg.Output.Dir, a.renderers, report, a.logger)
	if err != nil {
		errs = append(errs, err)
	}
	if a.store != nil {
		if err := a.store.Save(ctx, report); err != nil {
			a.logger.Warn("archiving report failed", zap.String("run_id", report.RunID), zap.Error(err))
			errs = append(errs, fmt.Errorf("archiving report: %w", err))
		} else {
			a.logger.Debug("report archived", zap.String("run_id", report.RunID))
		}
	}
	return report, paths, errors.Join(errs...)
}

// serveMetrics exposes /metrics on addr until ctx is done.
func (a *app) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
