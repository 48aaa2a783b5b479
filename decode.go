// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

// Kind identifies which variant of DecodedResource is populated.
type Kind string

// Decoded resource kinds.
const (
	KindProperties Kind = "properties"
	KindRaster     Kind = "raster"
	KindRules      Kind = "rules"
	KindJSON       Kind = "json"
	KindScript     Kind = "script"
	KindRaw        Kind = "raw"
)

// DecodedResource is the decode outcome for one index entry.
//
// Kind selects the populated field. KindRaw is used for unrecognized types and
// for failed decodes; Raw then carries the resource bytes and Err the reason.
// Structured fields decoded before a failure are kept for inspection.
type DecodedResource struct {
	// Err is the resource-level decode failure, nil when fully decoded.
	Err error `json:"-" yaml:"-"`
	// Raster is set for raster resources (header only).
	Raster *RasterHeader `json:"raster,omitempty" yaml:"raster,omitempty"`
	// Rules is set for rules tables.
	Rules *RulesTable `json:"rules,omitempty" yaml:"rules,omitempty"`
	// Kind is the populated variant.
	Kind Kind `json:"kind" yaml:"kind"`
	// Text is set for JSON and script resources.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Properties is set for property lists.
	Properties []PropertyRecord `json:"properties,omitempty" yaml:"properties,omitempty"`
	// Raw holds resource bytes for KindRaw.
	Raw []byte `json:"raw,omitempty" yaml:"raw,omitempty"`
	// Entry is the index entry this resource was read from.
	Entry IndexEntry `json:"entry" yaml:"entry"`
	// Recognized reports whether the type tag maps to a decoder.
	Recognized bool `json:"recognized" yaml:"recognized"`
}

// Decoded reports whether the resource was fully decoded into a structured kind.
// Property lists with skipped records are not fully decoded.
func (d *DecodedResource) Decoded() bool {
	if d.Err != nil || d.Kind == KindRaw {
		return false
	}

	return d.SkippedProperties() == 0
}

// SkippedProperties returns number of property records stepped over as unsupported.
func (d *DecodedResource) SkippedProperties() int {
	n := 0
	for i := range d.Properties {
		if d.Properties[i].Err != nil {
			n++
		}
	}

	return n
}

// Decode routes data to the decoder registered for typ.
// It never returns an error: failures are reported through DecodedResource.Err.
func Decode(typ ResourceType, data []byte) DecodedResource {
	res := DecodedResource{Recognized: true}

	switch typ {
	case TypeProperties:
		res.Kind = KindProperties
		res.Properties, res.Err = DecodeProperties(data)
	case TypeRaster:
		res.Kind = KindRaster
		res.Raster, res.Err = DecodeRasterHeader(data)
	case TypeRules:
		res.Kind = KindRules
		res.Rules, res.Err = DecodeRules(data)
	case TypeJSON:
		res.Kind = KindJSON
		res.Text = DecodeText(data)
	case TypeScript:
		res.Kind = KindScript
		res.Text = DecodeText(data)
	default:
		res.Recognized = false
		res.Kind = KindRaw
		res.Raw = data
	}

	if res.Err != nil {
		res.Kind = KindRaw
		res.Raw = data
	}

	return res
}

// DecodeEntry decodes data read for entry and attaches the entry to the result.
func DecodeEntry(entry IndexEntry, data []byte) DecodedResource {
	res := Decode(entry.Type, data)
	res.Entry = entry
	return res
}
