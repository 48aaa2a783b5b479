// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

// Command dbpfdump inspects DBPF archives: prints the header, lists the index,
// dumps decoded resources as JSON or extracts resource chunks to a directory.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/woozymasta/dbpf"
	"github.com/woozymasta/pathrules"
)

const (
	modeHeader  = "header"
	modeList    = "list"
	modeDump    = "dump"
	modeExtract = "extract"
)

type config struct {
	mode      string
	input     string
	outputDir string
	types     string
	include   string
	workers   int
	minSize   uint
	strict    bool
	stored    bool
	verbose   bool
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "dbpfdump:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("dbpfdump", flag.ContinueOnError)
	fs.StringVar(&cfg.mode, "mode", modeDump, "One of 'header', 'list', 'dump' or 'extract'")
	fs.StringVar(&cfg.input, "in", "", "Path of DBPF archive")
	fs.StringVar(&cfg.outputDir, "out", "", "Output directory for '-mode extract'")
	fs.StringVar(&cfg.types, "types", "", "Comma-separated resource type tags to keep, e.g. 0x00B1B104,0x0A98EAF0")
	fs.StringVar(&cfg.include, "include", "", "Comma-separated path patterns over GGGGGGGG/IIIIIIII.ext ('/' or '\\' separators); '!' prefix excludes")
	fs.IntVar(&cfg.workers, "workers", 0, "Decode/extract workers (0 = GOMAXPROCS)")
	fs.UintVar(&cfg.minSize, "min-size", 0, "Skip resources with smaller declared uncompressed size")
	fs.BoolVar(&cfg.strict, "strict", false, "Reject archives with bad magic")
	fs.BoolVar(&cfg.stored, "stored", false, "Extract chunks as stored, without decompression")
	fs.BoolVar(&cfg.verbose, "v", false, "Verbose logging to stderr")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.input == "" && fs.NArg() > 0 {
		cfg.input = fs.Arg(0)
	}
	if cfg.input == "" {
		fs.Usage()
		return cfg, errors.New("missing input archive")
	}

	switch cfg.mode {
	case modeHeader, modeList, modeDump:
	case modeExtract:
		if cfg.outputDir == "" {
			return cfg, errors.New("'-mode extract' requires '-out'")
		}
	default:
		return cfg, fmt.Errorf("unknown mode %q", cfg.mode)
	}

	return cfg, nil
}

func run(ctx context.Context, cfg config, stdout io.Writer) error {
	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.mode == modeHeader {
		h, err := dbpf.ReadHeader(cfg.input)
		if err != nil {
			return err
		}
		return writeJSON(stdout, h)
	}

	sel, err := buildSelection(cfg)
	if err != nil {
		return err
	}

	r, err := dbpf.OpenWithOptions(cfg.input, dbpf.ReaderOptions{
		Logger:      logger,
		StrictMagic: cfg.strict,
	})
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	switch cfg.mode {
	case modeList:
		entries, err := dbpf.SelectEntries(r.Entries(), sel)
		if err != nil {
			return err
		}
		return writeJSON(stdout, entries)
	case modeExtract:
		return r.Extract(ctx, cfg.outputDir, dbpf.ExtractOptions{
			Selection:  sel,
			MaxWorkers: cfg.workers,
			Stored:     cfg.stored,
			OnEntryDone: func(entry dbpf.IndexEntry, written int64, outputPath string) {
				logger.Debug("extracted", slog.String("key", entry.Key().String()),
					slog.Int64("bytes", written), slog.String("path", outputPath))
			},
		})
	default:
		resources, err := r.Scan(ctx, dbpf.ScanOptions{
			Selection:  sel,
			MaxWorkers: cfg.workers,
		})
		if err != nil {
			return err
		}
		return writeJSON(stdout, dumpResources(resources))
	}
}

// dumpResource adds a printable error to DecodedResource for JSON output.
type dumpResource struct {
	dbpf.DecodedResource
	Error string `json:"error,omitempty"`
}

func dumpResources(resources []dbpf.DecodedResource) []dumpResource {
	out := make([]dumpResource, len(resources))
	for i := range resources {
		out[i].DecodedResource = resources[i]
		if resources[i].Err != nil {
			out[i].Error = resources[i].Err.Error()
		}
	}

	return out
}

func buildSelection(cfg config) (dbpf.Selection, error) {
	sel := dbpf.Selection{MinMemSize: uint32(min(cfg.minSize, uint(^uint32(0))))}

	for _, raw := range splitList(cfg.types) {
		v, err := strconv.ParseUint(raw, 0, 32)
		if err != nil {
			return sel, fmt.Errorf("parse type %q: %w", raw, err)
		}
		sel.Types = append(sel.Types, dbpf.ResourceType(v))
	}

	for _, pattern := range splitList(cfg.include) {
		action := pathrules.ActionInclude
		if rest, ok := strings.CutPrefix(pattern, "!"); ok {
			action, pattern = pathrules.ActionExclude, rest
		}

		pattern = dbpf.NormalizePath(pattern)
		if pattern == "" {
			continue
		}
		sel.Include = append(sel.Include, pathrules.Rule{Action: action, Pattern: pattern})
	}

	// Exclude-only rule sets keep everything else.
	if len(sel.Include) > 0 && !hasIncludeRule(sel.Include) {
		sel.IncludeMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionInclude,
		}
	}

	return sel, nil
}

func hasIncludeRule(rules []pathrules.Rule) bool {
	for _, rule := range rules {
		if rule.Action == pathrules.ActionInclude {
			return true
		}
	}

	return false
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
