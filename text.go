// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

// DecodeText reinterprets resource bytes as text.
func DecodeText(data []byte) string {
	return string(data)
}
