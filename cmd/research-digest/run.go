// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-digest/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Produce one research digest for a topic",
	Long: `Run executes the full pipeline once for the given topic: keyword
expansion, paper search, relevance ranking, summarization of the top papers,
and a comparative analysis. The report is printed to stdout and written to
the output directory in each configured format.

All words after "run" form the topic:

  research-digest run graph neural networks`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: bindPipelineFlags,
	RunE:    runDigest,
}

func runDigest(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		a.serveMetrics(ctx, addr)
	}

	report, paths, err := a.digest(ctx, topic)
	if report == nil {
		return err
	}
	if err != nil {
		logger.Warn("report produced with output errors", zap.Error(err))
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := printReport(os.Stdout, report, jsonOutput); err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(os.Stderr, "wrote", p)
	}
	return nil
}

func printReport(w io.Writer, report *types.Report, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "Topic: %s\n%s\n\n", report.Topic, report.TopicSummary)
	if len(report.SummarizedPapers) == 0 {
		fmt.Fprintln(w, "No papers found.")
	} else {
		fmt.Fprintf(w, "%-4s  %-60s  %-4s  %-9s  %s\n", "Rank", "Title", "Year", "Citations", "Score")
		fmt.Fprintln(w, strings.Repeat("-", 90))
		for i, p := range report.SummarizedPapers {
			fmt.Fprintf(w, "%-4d  %-60s  %-4d  %-9d  %.2f\n",
				i+1, truncate(p.Title, 60), p.Year, p.CitationCount, p.RelevanceScore)
		}
		for i, p := range report.SummarizedPapers {
			fmt.Fprintf(w, "\n[%d] %s\n%s\n", i+1, p.Title, strings.TrimSpace(p.Summary.Text))
		}
	}
	fmt.Fprintf(w, "\nComparative analysis:\n%s\n", strings.TrimSpace(report.ComparativeAnalysis))
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// addPipelineFlags registers the config overrides shared by run and schedule.
func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("provider", "", "completion provider: together or anthropic")
	f.String("model", "", "completion model")
	f.Duration("call-interval", 0, "minimum spacing between completion calls (default 1.1s)")
	f.String("backend", "", "search backend: arxiv, openalex, semantic_scholar, synthetic")
	f.Int("per-keyword", 0, "records retrieved per keyword (default 3)")
	f.Int("top-n", 0, "papers kept after ranking (default 3)")
	f.String("engine-url", "", "local Ollama server URL")
	f.String("summary-model", "", "local summarization model")
	f.String("output-dir", "", "directory for rendered reports")
	f.StringSlice("format", nil, "output formats: markdown, yaml, json, charts, bibtex")
	f.String("archive", "", "SQLite archive path (empty disables archiving)")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

// pipelineFlagKeys maps config keys to the flags that override them.
var pipelineFlagKeys = map[string]string{
	"completion.provider":      "provider",
	"completion.model":         "model",
	"completion.call_interval": "call-interval",
	"search.backend":           "backend",
	"search.per_keyword":       "per-keyword",
	"rank.top_n":               "top-n",
	"summarize.engine_url":     "engine-url",
	"summarize.model":          "summary-model",
	"output.dir":               "output-dir",
	"output.formats":           "format",
	"output.archive_path":      "archive",
}

// bindPipelineFlags binds the executing command's flags. Run and schedule
// share config keys, so binding happens per invocation rather than in init.
func bindPipelineFlags(cmd *cobra.Command, args []string) error {
	for key, flag := range pipelineFlagKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

func init() {
	addPipelineFlags(runCmd)
	runCmd.Flags().Bool("json", false, "print the report as JSON")
	rootCmd.AddCommand(runCmd)
}
