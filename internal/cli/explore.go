package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/availdep/pkg/graph"
	"github.com/matzehuels/availdep/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listFocusStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
)

// exploreCommand creates the interactive explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var opts ancestorsOpts

	cmd := &cobra.Command{
		Use:   "explore [file]",
		Short: "Browse a graph and the ancestors of each node",
		Long: `Explore lists the nodes of the graph. Selecting a node keeps the node and
everything it depends on bright and dims the rest. Press t to switch
between the simplified and the full graph.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runExplore(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.course, "course", 0, "course id to fetch from the configured source")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "read an exported graph instead of records")
	cmd.Flags().StringVar(&opts.full, "full", "no", "start with the full graph (yes|no)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input string, opts ancestorsOpts) error {
	res, err := c.loadResult(ctx, input, opts)
	if err != nil {
		return err
	}

	var rebuild func(pipeline.Mode) (*pipeline.Result, error)
	if opts.graph == "" {
		rebuild = func(m pipeline.Mode) (*pipeline.Result, error) {
			o := opts
			o.full = m.Param()
			return c.loadResult(ctx, input, o)
		}
	}

	_, err = tea.NewProgram(newExploreModel(res, rebuild), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// exploreModel - Interactive ancestor explorer
// =============================================================================

// exploreModel lists the nodes of a graph. The focused node and its
// ancestors render normally, all other nodes dimmed.
type exploreModel struct {
	results map[pipeline.Mode]*pipeline.Result
	mode    pipeline.Mode
	nodes   []*graph.Node

	// rebuild builds the graph of another mode; nil when only one graph is
	// available.
	rebuild func(pipeline.Mode) (*pipeline.Result, error)

	cursor int
	offset int
	height int

	focus    string // id of the selected node, empty for none
	ancestry graph.Ancestry
	err      error
}

func newExploreModel(res *pipeline.Result, rebuild func(pipeline.Mode) (*pipeline.Result, error)) exploreModel {
	return exploreModel{
		results: map[pipeline.Mode]*pipeline.Result{res.Mode: res},
		mode:    res.Mode,
		nodes:   res.Graph.Nodes(),
		rebuild: rebuild,
		height:  15,
	}
}

func (m exploreModel) current() *pipeline.Result { return m.results[m.mode] }

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.focus = ""
			m.ancestry = graph.Ancestry{}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if len(m.nodes) == 0 {
				break
			}
			id := m.nodes[m.cursor].ID
			a, err := m.current().AncestorsOf(id)
			if err != nil {
				m.err = err
				break
			}
			m.focus, m.ancestry, m.err = id, a, nil
		case "t":
			m = m.toggle()
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

// toggle switches between the simplified and the full graph, building the
// other one on first use. The focused node stays focused if it exists in
// both graphs.
func (m exploreModel) toggle() exploreModel {
	next := pipeline.ModeFull
	if m.mode == pipeline.ModeFull {
		next = pipeline.ModeSimplified
	}
	if _, ok := m.results[next]; !ok {
		if m.rebuild == nil {
			m.err = fmt.Errorf("only the %s graph is available", m.mode)
			return m
		}
		res, err := m.rebuild(next)
		if err != nil {
			m.err = err
			return m
		}
		m.results[next] = res
	}

	m.mode = next
	m.nodes = m.current().Graph.Nodes()
	m.cursor, m.offset, m.err = 0, 0, nil
	if a, err := m.current().AncestorsOf(m.focus); m.focus != "" && err == nil {
		m.ancestry = a
		for i, n := range m.nodes {
			if n.ID == m.focus {
				m.cursor = i
				m.offset = max(0, i-m.height+1)
			}
		}
	} else {
		m.focus = ""
		m.ancestry = graph.Ancestry{}
	}
	return m
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(pipeline.Heading(m.mode)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc clear  t simplified/full  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.nodes))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.line(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.nodes))
	if m.focus != "" {
		status += fmt.Sprintf("  %d ancestors, %d edges", len(m.ancestry.Nodes)-1, len(m.ancestry.Edges))
	}
	b.WriteString(listDimStyle.Render(status))
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styleIconError.Render(iconError + " " + m.err.Error()))
	}
	return b.String()
}

// line renders the i-th node of the list.
func (m exploreModel) line(i int) string {
	n := m.nodes[i]
	cursor := "  "
	if i == m.cursor {
		cursor = "▸ "
	}
	text := fmt.Sprintf("%s%-6s %s", cursor, n.ID, n.Label)
	if n.IsOperator() {
		text += listDimStyle.Render(fmt.Sprintf("  (%d parents)", len(m.current().Graph.Parents(n.ID))))
	}

	switch {
	case n.ID == m.focus:
		return listFocusStyle.Render(text)
	case m.focus != "" && !m.ancestry.Includes(n.ID):
		return listDimStyle.Render(text)
	case i == m.cursor:
		return listSelectedStyle.Render(text)
	}
	return listNormalStyle.Render(text)
}
