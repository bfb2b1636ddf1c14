// Command spooker converts meter export files into Home Assistant
// statistics YAML from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"spooker/internal/config"
	"spooker/internal/infrastructure"
	"spooker/internal/services"
	"spooker/pkg/contracts"
)

func main() {
	os.Exit(run())
}

func run() int {
	format := flag.String("format", "", "force the input format (legacy, interval, cumulative) instead of auto-detection")
	delimiter := flag.String("delimiter", "", "CSV field delimiter, a single character; empty auto-detects")
	timezone := flag.String("timezone", "", "fixed UTC offset for statistics timestamps, e.g. +02:00")
	resolution := flag.String("resolution", "", "statistics resolution: hourly or daily")
	output := flag.String("output", "", "output directory for the generated YAML files")
	base := flag.String("base", "", "filename stem of the generated YAML files")
	dryRun := flag.Bool("dry-run", false, "parse and reconstruct without writing output files")
	noBackup := flag.Bool("no-backup", false, "do not backup existing output files before overwriting")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return 0
	}

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: spooker [flags] <export-file> [<export-file>...]")
		flag.PrintDefaults()
		return 2
	}

	// Optional .env next to the binary keeps add-on and dev setups alike.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}
	applyFlags(cfg, *delimiter, *timezone, *resolution, *output, *base, *noBackup, *verbose)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			logger.Error("input file not found", slog.String("path", path))
			return 1
		}
	}

	svc := services.NewProcessService(cfg, logger)
	summary, err := svc.ProcessPaths(context.Background(), paths, services.ProcessOptions{
		FormatOverride: *format,
		DryRun:         *dryRun,
	})
	if err != nil {
		logger.Error("processing failed", slog.String("error", err.Error()))
		return 1
	}

	printSummary(summary)
	if len(summary.FileErrors) > 0 {
		return 1
	}
	return 0
}

// applyFlags lays the command line over the loaded configuration.
func applyFlags(cfg *config.Config, delimiter, timezone, resolution, output, base string, noBackup, verbose bool) {
	if delimiter != "" {
		cfg.Processing.Delimiter = delimiter
	}
	if timezone != "" {
		cfg.Processing.Timezone = timezone
	}
	if resolution != "" {
		cfg.Processing.Resolution = resolution
	}
	if output != "" {
		cfg.Paths.OutputDir = output
	}
	if base != "" {
		cfg.Processing.OutputBase = base
	}
	if noBackup {
		cfg.Processing.Backups = false
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}

func printSummary(s *services.Summary) {
	fmt.Printf("Processed %d file(s)", len(s.Files))
	if len(s.FormatsSeen) > 0 {
		names := make([]string, len(s.FormatsSeen))
		for i, f := range s.FormatsSeen {
			names[i] = string(f)
		}
		fmt.Printf(" [%s]", strings.Join(names, ", "))
	}
	fmt.Printf(": %d records", s.TotalRecords)
	if s.Range != nil {
		fmt.Printf(", %s to %s",
			s.Range.Start.Format("2006-01-02"),
			s.Range.End.Format("2006-01-02"))
	}
	fmt.Println()

	fmt.Printf("Statistics points: %d import, %d export\n", s.ImportPoints, s.ExportPoints)
	if s.DryRun {
		fmt.Println("Dry run: no files written")
	}
	for _, out := range s.Outputs {
		fmt.Printf("  wrote %s (%d points, %d bytes)\n", out.Path, out.Points, out.Bytes)
	}
	for _, fe := range s.FileErrors {
		fmt.Fprintf(os.Stderr, "  failed %s: %s\n", fe.File, fe.Message)
	}
}
