package model

import (
	"encoding/json"
	"time"
)

// Mode is a named variant dimension within a collection (e.g. Light/Dark).
// Mode ids are unique within their collection and carry no meaning across
// collections.
type Mode struct {
	ID   string `json:"modeId"`
	Name string `json:"name"`
}

// Collection is a named, ordered group of modes owning a set of variables.
type Collection struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Modes []Mode `json:"modes"`
}

// ValueKind discriminates the shapes a per-mode variable value can take.
// The kind is decided once, when the document is decoded, so downstream
// code dispatches on the tag instead of probing fields.
type ValueKind int

const (
	KindUnrecognized ValueKind = iota
	KindRGB
	KindHex
	KindAlias
)

// RGB is a terminal color with channels in [0,1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// ColorValue is the tagged union over the value shapes: a terminal RGB
// triple, a terminal hex string, an alias to another variable, or an
// unrecognized shape. Exactly one payload field is meaningful, selected
// by Kind.
type ColorValue struct {
	Kind    ValueKind
	RGB     RGB
	Hex     string
	AliasID string
}

// Variable is a color variable as read from the host store. Read-only
// once decoded.
type Variable struct {
	ID           string
	Name         string
	CollectionID string
	ValuesByMode map[string]ColorValue
}

// ClassifyValue maps a raw JSON value onto the ColorValue union. Strings
// are tagged KindHex unverified; the resolver applies the format guard.
func ClassifyValue(raw json.RawMessage) ColorValue {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ColorValue{Kind: KindHex, Hex: s}
	}

	var alias struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(raw, &alias); err == nil && alias.Type == "VARIABLE_ALIAS" && alias.ID != "" {
		return ColorValue{Kind: KindAlias, AliasID: alias.ID}
	}

	var rgb struct {
		R *float64 `json:"r"`
		G *float64 `json:"g"`
		B *float64 `json:"b"`
	}
	if err := json.Unmarshal(raw, &rgb); err == nil && rgb.R != nil && rgb.G != nil && rgb.B != nil {
		return ColorValue{Kind: KindRGB, RGB: RGB{R: *rgb.R, G: *rgb.G, B: *rgb.B}}
	}

	return ColorValue{Kind: KindUnrecognized}
}

// ResolvedVariable is one exported token: the original path-style name,
// its export-safe clean name, and the terminal OKLCH strings for both
// modes. Only fully resolved variables become ResolvedVariables.
type ResolvedVariable struct {
	Name      string `json:"name"`
	CleanName string `json:"clean_name"`
	Light     string `json:"light"`
	Dark      string `json:"dark"`
}

// ExportResult is the outcome of one export run, in resolution order.
type ExportResult struct {
	CollectionName string             `json:"collection_name"`
	Variables      []ResolvedVariable `json:"variables"`
}

// ExportRecord is a persisted export run.
type ExportRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	CollectionName string    `json:"collection_name"`
	VariableCount  int       `json:"variable_count"`
	CSS            string    `json:"css"`
}
