// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Scan reads and decodes every selected resource and returns results in index order.
//
// Resource-level failures (truncated chunk, corrupt stream, decoder error) are
// reported through DecodedResource.Err and never abort the scan. The returned
// error is non-nil only for invalid options, a closed reader or ctx cancellation.
func (r *Reader) Scan(ctx context.Context, opts ScanOptions) ([]DecodedResource, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	opts.applyDefaults(r.logger)

	entries, err := SelectEntries(r.entries, opts.Selection)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(min(workers, len(entries)), 1)

	results := make([]DecodedResource, len(entries))
	var doneMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range entries {
		if err := gctx.Err(); err != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := r.scanEntry(entries[i])
			results[i] = res

			if res.Err != nil {
				opts.Logger.Debug("resource decode failed",
					slog.String("key", res.Entry.Key().String()),
					slog.String("type", res.Entry.Type.String()),
					slog.Any("error", res.Err),
				)
			}

			if opts.OnResourceDone != nil {
				doneMu.Lock()
				opts.OnResourceDone(res)
				doneMu.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}

	opts.Logger.Info("scan complete",
		slog.Int("resources", len(results)),
		slog.Int("failed", failed),
		slog.Int("workers", workers),
	)

	return results, nil
}

// scanEntry loads and decodes one entry. Chunk read errors produce a raw result.
func (r *Reader) scanEntry(entry IndexEntry) DecodedResource {
	data, err := r.loadEntryData(entry)
	if err != nil {
		return DecodedResource{
			Entry:      entry,
			Kind:       KindRaw,
			Recognized: entry.Type.Known(),
			Raw:        data,
			Err:        err,
		}
	}

	return DecodeEntry(entry, data)
}
