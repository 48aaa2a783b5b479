// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

/*
Package dbpf provides read-only inspection of DBPF resource archives: header
and index parsing, RefPack chunk decompression and decoding of known resource
types into structured values.

Archive layout (summary):
  - fixed 96-byte little-endian header starting with "DBPF";
  - index at Header.IndexOffset, led by a mode word whose low three bits mark
    type, group and the third index word as shared by all entries;
  - per-entry chunk location, stored size and declared uncompressed size;
  - chunks flagged 0xFFFF are RefPack streams (see package refpack).

Resource types decoded by Decode:
  - 0x00B1B104 property lists (typed scalar and array variables);
  - 0x2F4E681C rasters (header only, the mipmap body is reported as unsupported);
  - 0x08068AEB rules tables;
  - 0x0A98EAF0 JSON and 0x024A0E52 script sources (text passthrough).

Other types are returned raw with DecodedResource.Recognized unset.

# Reading

Open an archive and decode every resource:

	r, err := dbpf.Open("data.package")
	if err != nil {
	    return err
	}
	defer r.Close()

	resources, err := r.Scan(ctx, dbpf.ScanOptions{MaxWorkers: 4})
	if err != nil {
	    return err
	}
	for _, res := range resources {
	    if res.Err != nil {
	        // res.Raw holds the chunk bytes; partial fields are kept
	        continue
	    }
	    _ = res.Properties
	}

A failure in one resource never aborts the scan. Header and index errors are
returned from Open with a *TruncatedError carrying the absolute offset:

	var te *dbpf.TruncatedError
	if errors.As(err, &te) {
	    fmt.Println("index ends at", te.Offset)
	}

Archives with a wrong magic are opened with a warning unless
ReaderOptions.StrictMagic is set.

For metadata-only scans, use fast helpers without keeping a reader:

	h, err := dbpf.ReadHeader("data.package")
	if err != nil {
	    return err
	}
	entries, err := dbpf.ListEntries("data.package")
	if err != nil {
	    return err
	}
	_, _ = h, entries

Read a single resource by key:

	data, err := r.ReadEntry(dbpf.ResourceKey{
	    Type:     dbpf.TypeJSON,
	    Group:    0x00000001,
	    Instance: 0x0000CAFE,
	})

# Selecting

Selection limits Scan, Extract and ListEntriesWithOptions by type, declared
size and github.com/woozymasta/pathrules rules over ResourcePath
("GGGGGGGG/IIIIIIII.ext"):

	resources, err := r.Scan(ctx, dbpf.ScanOptions{
	    Selection: dbpf.Selection{
	        Types: []dbpf.ResourceType{dbpf.TypeProperties},
	        Include: []pathrules.Rule{
	            {Action: pathrules.ActionInclude, Pattern: "00000001/**"},
	        },
	    },
	})

# Extracting

Extract writes decompressed resources to a directory (parallel workers):

	if err := r.Extract(ctx, "out/", dbpf.ExtractOptions{MaxWorkers: 4}); err != nil {
	    return err
	}

Set ExtractOptions.Stored to write chunks exactly as stored.
*/
package dbpf
