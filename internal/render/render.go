// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns a finished Report into files: a Markdown document,
// machine-readable YAML and JSON exports, and chart data. Renderers only
// read the Report.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-digest/internal/logging"
	"github.com/pdiddy/research-digest/pkg/types"
)

// Renderer writes one representation of a Report.
type Renderer interface {
	// Format is the config name of the renderer (e.g. "markdown").
	Format() string

	// Ext is the file extension, including the dot.
	Ext() string

	// Write renders report to w.
	Write(w io.Writer, report *types.Report) error
}

// New returns the renderer registered under format.
func New(format string) (Renderer, error) {
	switch format {
	case "markdown":
		return MarkdownRenderer{}, nil
	case "yaml":
		return YAMLRenderer{}, nil
	case "json":
		return JSONRenderer{Indent: true}, nil
	case "charts":
		return ChartRenderer{TopWords: defaultTopWords}, nil
	case "bibtex":
		return BibTeXRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// BaseName returns the file stem shared by every artifact of report:
// a slug of the topic followed by the first eight characters of the run ID.
func BaseName(report *types.Report) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(report.Topic), "-"), "-")
	if len(slug) > 48 {
		slug = strings.TrimRight(slug[:48], "-")
	}
	if slug == "" {
		slug = "report"
	}
	id := report.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return slug
	}
	return slug + "-" + id
}

// WriteFile renders report into dir and returns the written path. The
// file is written through a temporary name and renamed into place.
func WriteFile(dir string, r Renderer, report *types.Report) (string, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, report); err != nil {
		return "", fmt.Errorf("rendering %s: %w", r.Format(), err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, BaseName(report)+r.Ext())
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// RenderAll runs every renderer against report. A failing renderer does
// not stop the others; all failures are joined into the returned error.
func RenderAll(ctx context.Context, dir string, renderers []Renderer, report *types.Report, logger *zap.Logger) ([]string, error) {
	logger = logging.OrNop(logger)
	var (
		paths []string
		errs  []error
	)
	for _, r := range renderers {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := WriteFile(dir, r, report)
		if err != nil {
			logger.Warn("renderer failed", zap.String("format", r.Format()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		logger.Info("report rendered", zap.String("format", r.Format()), zap.String("path", path))
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

// FromFormats builds renderers for the configured format names.
func FromFormats(formats []string) ([]Renderer, error) {
	out := make([]Renderer, 0, len(formats))
	for _, f := range formats {
		r, err := New(f)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
