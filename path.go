// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"path"
	"strings"
)

// ResourcePath returns canonical slash-separated path of a resource:
// "GGGGGGGG/IIIIIIII.ext" with upper-case hex group and instance ids.
// The same path is used for selection rules and extraction output.
func ResourcePath(entry IndexEntry) string {
	return fmt.Sprintf("%08X/%08X.%s", entry.Group, entry.Instance, entry.Type.Extension())
}

// NormalizePath converts a user path or pattern to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(path string) string {
	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, `\`, `/`)
	path = strings.TrimPrefix(path, "./")
	return path
}
