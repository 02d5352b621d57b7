// Package pipeline provides the build pipeline shared by the CLI and the API.
//
// This package implements the complete load → build → render pipeline. By
// centralizing this logic, caching, hooks and output formats behave the same
// for every entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a payload from a file, stdin or bytes (order-preserving)
//  2. Build: Normalize the payload and derive its view model (cached by
//     canonical graph hash and locale)
//  3. Render: Generate output in various formats (HTML, JSON, DOT, SVG,
//     PNG, PDF), cached by view model hash and render options
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	raw, err := pipeline.Load("graph.json")
//	result, err := runner.Execute(ctx, raw, pipeline.Options{Formats: []string{"html"}})
//	page := result.Artifacts["html"]
//
// Run individual stages:
//
//	built, err := runner.Build(ctx, raw, opts)
//	artifacts, err := runner.Render(ctx, built.View, opts)
package pipeline

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/matzehuels/kgview/pkg/cache"
	"github.com/matzehuels/kgview/pkg/collate"
	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
	"github.com/matzehuels/kgview/pkg/view"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultLocale is the collation locale used when none is given.
const DefaultLocale = "en-US"

// Format constants for output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = FormatHTML

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatHTML: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// FormatNames lists the supported formats in display order.
var FormatNames = []string{FormatHTML, FormatJSON, FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// ContentTypes maps formats to MIME types.
var ContentTypes = map[string]string{
	FormatHTML: "text/html; charset=utf-8",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	Locale  string `json:"locale,omitempty"`
	Refresh bool   `json:"refresh,omitempty"`

	// Render options
	Formats          []string `json:"formats,omitempty"`
	Detailed         bool     `json:"detailed,omitempty"`
	ClusterSubgraphs bool     `json:"cluster_subgraphs,omitempty"`
	PNGScale         float64  `json:"png_scale,omitempty"`

	// Template replaces the built-in HTML template.
	Template []byte `json:"-"`

	// Source names the payload in logs and hooks.
	Source string `json:"-"`

	tag       language.Tag
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	*Built

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Built is the outcome of the build stage.
type Built struct {
	// View is the view model, or the pass-through of a pre-built payload.
	View *view.Result

	// Graph is the canonical graph; nil for pre-built payloads.
	Graph *graph.Graph

	// GraphHash is the content hash of the canonical graph.
	GraphHash string

	// CacheHit reports whether the view model came from cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Entities   int
	Relations  int
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the view model came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(FormatNames, ", "))
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

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild validates the locale and sets build defaults.
func (o *Options) ValidateForBuild() error {
	if o.Locale == "" {
		o.Locale = DefaultLocale
	}
	tag, err := collate.ParseLocale(o.Locale)
	if err != nil {
		return err
	}
	o.tag = tag
	if o.Source == "" {
		o.Source = "payload"
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.PNGScale == 0 {
		o.PNGScale = 2
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	o.Formats = dedupe(o.Formats)
	if o.PNGScale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %g", o.PNGScale)
	}
	return ValidateFormats(o.Formats)
}

// ViewOptions returns the builder options.
func (o *Options) ViewOptions() view.Options {
	return view.Options{Locale: o.tag}
}

// ViewKeyOpts returns cache key options for view model caching.
func (o *Options) ViewKeyOpts() cache.ViewKeyOpts {
	return cache.ViewKeyOpts{Locale: o.tag.String()}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// Only options that change the given format are included.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatHTML:
		if len(o.Template) > 0 {
			k.TemplateHash = cache.Hash(o.Template)
		}
	case FormatDOT, FormatSVG, FormatPNG, FormatPDF:
		k.Detailed = o.Detailed
		k.ClusterSubgraphs = o.ClusterSubgraphs
		if format == FormatPNG {
			k.Scale = o.PNGScale
		}
	}
	return k
}

// NeedsDOT reports whether any requested format is derived from DOT.
func (o *Options) NeedsDOT() bool {
	return slices.ContainsFunc(o.Formats, func(f string) bool {
		return f == FormatDOT || f == FormatSVG || f == FormatPNG || f == FormatPDF
	})
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
