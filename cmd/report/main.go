package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"options-edge-lab/internal/reporting"
	"options-edge-lab/internal/storage"
	pgstore "options-edge-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	runID := flag.String("run-id", "", "Render the full report for one run")
	segment := flag.String("segment", "", "Render a summary of all runs for a segment")
	format := flag.String("format", "markdown", "Output format: markdown, csv")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	outputPath := flag.String("output", "", "Write to file instead of stdout")
	flag.Parse()

	if (*runID == "") == (*segment == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of --run-id or --segment is required")
		os.Exit(1)
	}
	if *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required")
		os.Exit(1)
	}
	if *format != "markdown" && *format != "csv" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *format)
		os.Exit(1)
	}
	if *runID != "" && *format == "csv" {
		fmt.Fprintln(os.Stderr, "Error: csv output is only available for --segment summaries")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	gen := reporting.NewGenerator(pgstore.NewReportStore(pool))

	var out string
	if *runID != "" {
		rep, err := gen.Generate(ctx, *runID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Error: no report stored for run %s\n", *runID)
			} else {
				fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
			}
			os.Exit(1)
		}
		out = reporting.RenderMarkdown(rep)
	} else {
		rows, err := gen.GenerateSegment(ctx, *segment)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating summary: %v\n", err)
			os.Exit(1)
		}
		if *format == "csv" {
			out = reporting.RenderSummaryCSV(rows)
		} else {
			out = renderSummaryMarkdown(*segment, rows)
		}
	}

	if *outputPath == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(*outputPath, []byte(out), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *outputPath)
}

// renderSummaryMarkdown is the table form of the CSV summary.
func renderSummaryMarkdown(segment string, rows []reporting.SummaryRow) string {
	out := fmt.Sprintf("# Segment Summary: %s\n\n", segment)
	out += "| Run | Strategy | Status | Trades | Win Rate | Net R | Total | Grade |\n"
	out += "|-----|----------|--------|--------|----------|-------|-------|-------|\n"
	for _, r := range rows {
		out += fmt.Sprintf("| `%.12s` | %s | %s | %d | %.4f | %.4f | %.2f | %s |\n",
			r.RunID, r.StrategyID, r.Status, r.Trades, r.WinRate, r.NetR, r.Total, r.Grade)
	}
	return out
}
