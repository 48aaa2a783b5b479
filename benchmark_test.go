// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

const (
	benchDefaultEntries    = 128
	benchLargeIndexEntries = 52536
)

var (
	// benchListSink prevents compiler elimination in list benchmark loops.
	benchListSink int
)

func BenchmarkOpenParse(b *testing.B) {
	path := createBenchArchive(b, benchDefaultEntries, 0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}
		_ = r.Entries()
		_ = r.Close()
	}
}

func BenchmarkOpenParseLargeIndex(b *testing.B) {
	path := createBenchArchive(b, benchLargeIndexEntries, IndexModeTypeConstant|IndexModeUnknownConstant)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}

		if len(r.Entries()) == 0 {
			b.Fatal("empty entries")
		}
		_ = r.Close()
	}
}

func BenchmarkSelectLargeIndex(b *testing.B) {
	path := createBenchArchive(b, benchLargeIndexEntries, IndexModeTypeConstant|IndexModeUnknownConstant)
	r, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	entries := r.Entries()
	sel := Selection{MinMemSize: 8}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		selected, err := SelectEntries(entries, sel)
		if err != nil {
			b.Fatal(err)
		}

		benchListSink = len(selected)
	}
}

func BenchmarkScan(b *testing.B) {
	path := createBenchArchive(b, benchDefaultEntries, 0)
	r, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resources, err := r.Scan(context.Background(), ScanOptions{MaxWorkers: 4})
		if err != nil {
			b.Fatal(err)
		}

		benchListSink = len(resources)
	}
}

func BenchmarkExtract(b *testing.B) {
	path := createBenchArchive(b, benchDefaultEntries, 0)
	dir := b.TempDir()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path)
		if err != nil {
			b.Fatal(err)
		}
		out := filepath.Join(dir, "ext", fmt.Sprintf("run%d", i))
		err = r.Extract(context.Background(), out, ExtractOptions{MaxWorkers: 4})
		_ = r.Close()
		if err != nil {
			b.Fatal(err)
		}
	}
}

// createBenchArchive writes an archive alternating compressed scripts and property lists.
func createBenchArchive(b *testing.B, numEntries int, mode IndexMode) string {
	b.Helper()

	script := []byte("local value = 42\nreturn value * 2 -- benchmark payload line\n")
	compressed := refpackLiteral(script)
	props := new(propertyBuilder).
		scalar(1, PropertyUint32, be32(42)).
		scalar(2, PropertyString8, concat(be32(5), []byte("hello"))).
		array(3, PropertyVector3, 2, 12, make([]byte, 24)).
		bytes()

	resources := make([]testResource, numEntries)
	for i := range resources {
		res := testResource{typ: TypeScript, group: uint32(i % 16), instance: uint32(i)}
		switch {
		case mode.Has(IndexModeTypeConstant):
			res.data = []byte("return 0")
		case i%2 == 0:
			res.data, res.memSize, res.compressed = compressed, uint32(len(script)), true
		default:
			res.typ, res.data = TypeProperties, props
		}

		resources[i] = res
	}

	return writeArchive(b, testArchive{mode: mode, resources: resources})
}
