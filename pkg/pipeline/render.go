package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/availdep/pkg/graph"
	"github.com/matzehuels/availdep/pkg/io"
	"github.com/matzehuels/availdep/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
//
// With a highlight set, the ancestors format holds only that node's ancestry
// and the DOT and SVG formats dim everything not upstream of it. A highlight
// that names no node fails with UNKNOWN_NODE.
func Render(ctx context.Context, res *Result, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	var highlight *graph.Ancestry
	if opts.Highlight != "" {
		a, err := res.AncestorsOf(opts.Highlight)
		if err != nil {
			return nil, err
		}
		highlight = &a
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, res, format, highlight, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, res *Result, format string, highlight *graph.Ancestry, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		if err := io.WriteGraph(res.Graph, res.Mode == ModeFull, &buf); err != nil {
			return nil, err
		}
	case FormatAncestors:
		var err error
		if highlight != nil {
			err = io.WriteAncestry(*highlight, &buf)
		} else {
			err = io.WriteAncestors(res.Ancestors, &buf)
		}
		if err != nil {
			return nil, err
		}
	case FormatDOT:
		buf.WriteString(toDOT(res, highlight, opts))
	case FormatSVG:
		return nodelink.RenderSVG(ctx, toDOT(res, highlight, opts))
	default:
		return nil, ValidateFormat(format)
	}
	return buf.Bytes(), nil
}

func toDOT(res *Result, highlight *graph.Ancestry, opts Options) string {
	return nodelink.ToDOT(res.Graph, nodelink.Options{
		Title:     opts.Title,
		Highlight: opts.Highlight,
		Ancestry:  highlight,
	})
}
