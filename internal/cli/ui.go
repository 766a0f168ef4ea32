package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/availdep/pkg/graph"
	"github.com/matzehuels/availdep/pkg/render/nodelink"
)

const missingNodeID = nodelink.MissingID

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - highlight
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleOperator = lipgloss.NewStyle().Foreground(colorBlue)
	styleMissing  = lipgloss.NewStyle().Foreground(colorRed).Italic(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// statusOut receives status lines. Graph output goes to stdout, so status
// goes to stderr to keep pipes clean.
var statusOut io.Writer = os.Stderr

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints graph statistics on a single line.
func printStats(nodes, operators, edges int, cached bool) {
	parts := []string{fmt.Sprintf("%d nodes", nodes)}
	if operators > 0 {
		parts = append(parts, fmt.Sprintf("%d operators", operators))
	}
	parts = append(parts, fmt.Sprintf("%d edges", edges))

	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}

	line := "  "
	for _, part := range parts {
		line += StyleDim.Render(part) + StyleDim.Render(" · ")
	}
	fmt.Fprintln(statusOut, line+status)
}

// =============================================================================
// Tables
// =============================================================================

// nodeLabel renders a node name the way every listing shows it: operators
// by symbol, the missing-activity placeholder in italics.
func nodeLabel(n *graph.Node) string {
	switch {
	case n.IsOperator():
		return styleOperator.Render(n.Label)
	case n.ID == missingNodeID:
		return styleMissing.Render(n.Label)
	}
	return n.Label
}

// ancestorTable renders the nodes of an ancestry with their kind and weight.
func ancestorTable(g *graph.Graph, a graph.Ancestry) string {
	rows := make([][]string, 0, len(a.Nodes))
	for _, id := range a.Nodes {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		rows = append(rows, []string{id, nodeLabel(n), n.Kind.String(), fmt.Sprint(n.Weight())})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Kind", "Weight").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row == 0 {
				return lipgloss.NewStyle().Bold(true)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// edgeLines lists the edges of an ancestry, one "from → to" per line.
func edgeLines(a graph.Ancestry) string {
	var b strings.Builder
	for _, e := range a.Edges {
		fmt.Fprintf(&b, "  %s %s %s\n", e.From, StyleDim.Render(iconArrow), e.To)
	}
	return b.String()
}
