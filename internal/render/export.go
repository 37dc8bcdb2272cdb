// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-digest/pkg/types"
)

// YAMLRenderer exports the full report as YAML.
type YAMLRenderer struct{}

// Format returns "yaml".
func (YAMLRenderer) Format() string { return "yaml" }

// Ext returns ".yaml".
func (YAMLRenderer) Ext() string { return ".yaml" }

// Write encodes report as YAML.
func (YAMLRenderer) Write(w io.Writer, report *types.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// JSONRenderer exports the full report as JSON.
type JSONRenderer struct {
	Indent bool
}

// Format returns "json".
func (JSONRenderer) Format() string { return "json" }

// Ext returns ".json".
func (JSONRenderer) Ext() string { return ".json" }

// Write encodes report as JSON.
func (j JSONRenderer) Write(w io.Writer, report *types.Report) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
