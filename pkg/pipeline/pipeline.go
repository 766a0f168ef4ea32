// Package pipeline turns course activity records into dependency graphs and
// rendered artifacts.
//
// This package implements the complete pipeline shared by the CLI commands
// and the HTTP server, so every entry point builds graphs the same way.
//
// # Architecture
//
// The pipeline consists of these stages:
//
//  1. Parse: decode each record's availability expression
//  2. Resolve: redirect references to deleted activities to a placeholder
//  3. Filter: drop activities without dependencies (simplified mode only)
//  4. Build: construct the simplified or full graph
//  5. Analyze: precompute the ancestors of every node
//  6. Render: encode the graph as JSON, ancestors, DOT or SVG
//
// Stages 1 to 5 are [Build], stage 6 is [Render]. All of them are pure and
// synchronous; only SVG rendering takes a context, for Graphviz.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, records, pipeline.Options{
//	    Mode:    pipeline.ModeFull,
//	    Formats: []string{pipeline.FormatJSON, pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/build"
	"github.com/matzehuels/availdep/pkg/cache"
	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/expr"
	"github.com/matzehuels/availdep/pkg/graph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultMaxDepth bounds the nesting of availability expressions.
	DefaultMaxDepth = expr.DefaultMaxDepth

	// DefaultMaxWeight caps the weight layout hint.
	DefaultMaxWeight = build.DefaultMaxWeight

	// DefaultMissingLabel names the placeholder for deleted activities.
	DefaultMissingLabel = activity.DefaultMissingLabel

	// HeadingSimplified titles simplified graphs.
	HeadingSimplified = "Simplified graph of availability dependencies between activities"

	// HeadingFull titles full graphs.
	HeadingFull = "Full graph of availability dependencies between activities"
)

// Format constants for output formats.
const (
	FormatJSON      = "json"
	FormatAncestors = "ancestors"
	FormatDOT       = "dot"
	FormatSVG       = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:      true,
	FormatAncestors: true,
	FormatDOT:       true,
	FormatSVG:       true,
}

// =============================================================================
// Mode
// =============================================================================

// Mode selects which graph builder runs.
type Mode int

const (
	// ModeSimplified flattens operators away and filters isolated activities.
	ModeSimplified Mode = iota
	// ModeFull keeps operators as nodes and all activities.
	ModeFull
)

// String returns "simplified" or "full".
func (m Mode) String() string {
	if m == ModeFull {
		return "full"
	}
	return "simplified"
}

// Param returns the mode as the two-valued request parameter, "yes" or "no".
func (m Mode) Param() string {
	if m == ModeFull {
		return "yes"
	}
	return "no"
}

// ParseMode parses the full=yes|no request parameter. The empty string is
// the explicit default, simplified. Any other value, including differently
// cased ones, is rejected with INVALID_MODE.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "yes":
		return ModeFull, nil
	case "no", "":
		return ModeSimplified, nil
	}
	return ModeSimplified, errors.New(errors.ErrCodeInvalidMode, "invalid mode %q (must be yes or no)", s)
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
type Options struct {
	// Build options
	Mode         Mode   `json:"mode"`
	MissingLabel string `json:"missing_label,omitempty"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MaxWeight    int    `json:"max_weight,omitempty"`
	Refresh      bool   `json:"refresh,omitempty"` // bypass cached graphs and artifacts

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Highlight string   `json:"highlight,omitempty"` // node whose ancestors stay undimmed
	Title     string   `json:"title,omitempty"`     // defaults to the mode's heading

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Mode != ModeSimplified && o.Mode != ModeFull {
		return errors.New(errors.ErrCodeInvalidMode, "invalid mode %d", o.Mode)
	}
	if o.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max depth must not be negative")
	}
	if o.MaxWeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max weight must not be negative")
	}
	if o.Highlight != "" {
		if err := errors.ValidateNodeID(o.Highlight); err != nil {
			return err
		}
	}
	if o.MissingLabel != "" {
		if err := errors.ValidateLabel(o.MissingLabel); err != nil {
			return err
		}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxWeight == 0 {
		o.MaxWeight = DefaultMaxWeight
	}
	if o.MissingLabel == "" {
		o.MissingLabel = DefaultMissingLabel
	}
	if o.Title == "" {
		o.Title = Heading(o.Mode)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Heading returns the default title of a graph built in mode m.
func Heading(m Mode) string {
	if m == ModeFull {
		return HeadingFull
	}
	return HeadingSimplified
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, ancestors, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// HasFormat reports whether format was requested.
func (o *Options) HasFormat(format string) bool {
	return slices.Contains(o.Formats, format)
}

// GraphKeyOpts returns cache key options for the built graph.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Full:         o.Mode == ModeFull,
		MissingLabel: o.MissingLabel,
		MaxDepth:     o.MaxDepth,
		MaxWeight:    o.MaxWeight,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Highlight: o.Highlight,
		Title:     o.Title,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Mode is the builder that produced Graph.
	Mode Mode

	// Activities is the resolved (and, in simplified mode, filtered)
	// activity collection. It is nil when the graph came from the cache.
	Activities []activity.Activity

	// Graph is the dependency graph.
	Graph *graph.Graph

	// Ancestors holds the precomputed ancestry of every node.
	Ancestors *graph.AncestorIndex

	// Repaired reports whether a missing-activity placeholder was added.
	Repaired bool

	// GraphHash is the content hash of the encoded graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Activities int
	Redirected int // completion leaves pointed at the missing placeholder
	Nodes      int
	Operators  int
	Edges      int
	Cyclic     bool
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit  bool // Whether the graph came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// AncestorsOf returns the ancestry of a node. Unknown ids yield an
// UNKNOWN_NODE error.
func (r *Result) AncestorsOf(id string) (graph.Ancestry, error) {
	a, ok := r.Ancestors.Of(id)
	if !ok {
		return graph.Ancestry{}, errors.New(errors.ErrCodeUnknownNode, "node %q is not in the graph", id)
	}
	return a, nil
}
