// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-digest/internal/archive"
	"github.com/pdiddy/research-digest/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived reports",
	Long: `History lists reports saved in the SQLite archive, newest first.
Filter by topic with --topic or by paper title and summary text with --query.
Use "history show <run-id>" to print an archived report.`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print an archived report",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Remove an archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	path, _ := cmd.Flags().GetString("archive")
	if path == "" {
		path = viper.GetString("output.archive_path")
	}
	if path == "" {
		return nil, fmt.Errorf("no archive configured: set output.archive_path or pass --archive")
	}
	return archive.Open(path)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	topic, _ := cmd.Flags().GetString("topic")
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(context.Background(), archive.ListOptions{Topic: topic, Query: query, Limit: limit})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(os.Stdout, entries, jsonOutput)
}

func formatHistory(w io.Writer, entries []archive.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No archived reports.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-6s  %s\n", "Run ID", "Generated", "Papers", "Topic")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, e := range entries {
		fmt.Fprintf(w, "%-36s  %-16s  %-6d  %s\n",
			e.RunID, e.GeneratedAt.Local().Format("2006-01-02 15:04"), e.Papers, truncate(e.Topic, 40))
	}
	fmt.Fprintf(w, "\n%d reports\n", len(entries))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := store.Load(context.Background(), args[0])
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	r, err := render.New(format)
	if err != nil {
		return err
	}
	return r.Write(os.Stdout, report)
}

func init() {
	historyCmd.PersistentFlags().String("archive", "", "SQLite archive path (default: output.archive_path)")
	historyCmd.Flags().String("topic", "", "filter by topic substring")
	historyCmd.Flags().String("query", "", "filter by paper title or summary substring")
	historyCmd.Flags().Int("limit", 20, "maximum number of reports to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	historyShowCmd.Flags().String("format", "markdown", "output format: markdown, yaml, json, charts, bibtex")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
