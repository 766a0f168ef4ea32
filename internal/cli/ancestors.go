package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/availdep/pkg/errors"
	availio "github.com/matzehuels/availdep/pkg/io"
	"github.com/matzehuels/availdep/pkg/pipeline"
)

type ancestorsOpts struct {
	course  int64
	graph   string // previously exported graph, instead of records
	full    string
	json    bool
	noCache bool
}

// ancestorsCommand creates the ancestors command.
func (c *CLI) ancestorsCommand() *cobra.Command {
	var opts ancestorsOpts

	cmd := &cobra.Command{
		Use:   "ancestors <node> [file]",
		Short: "List everything a node depends on",
		Long: `Ancestors prints the nodes and edges a node transitively depends on,
starting with the node itself. The graph is built from a records file or
--course like the build command does, or read from a graph exported with
"build -f json" via --graph.`,
		Example: `  availdep ancestors 17 course.json
  availdep ancestors op3 --course 42 --full=yes
  availdep ancestors 17 --graph graph.json --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 2 {
				input = args[1]
			}
			return c.runAncestors(cmd.Context(), cmd.OutOrStdout(), args[0], input, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.course, "course", 0, "course id to fetch from the configured source")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "read an exported graph instead of records")
	cmd.Flags().StringVar(&opts.full, "full", "no", "use the full graph with operator nodes (yes|no)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the ancestry as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runAncestors(ctx context.Context, w io.Writer, node, input string, opts ancestorsOpts) error {
	if err := errors.ValidateNodeID(node); err != nil {
		return err
	}
	res, err := c.loadResult(ctx, input, opts)
	if err != nil {
		return err
	}

	a, err := res.AncestorsOf(node)
	if err != nil {
		return err
	}
	if opts.json {
		return availio.WriteAncestry(a, w)
	}

	n, _ := res.Graph.Node(node)
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("Ancestors of %s", n.Label)))
	fmt.Fprintln(w, ancestorTable(res.Graph, a))
	if len(a.Edges) > 0 {
		fmt.Fprint(w, edgeLines(a))
	}
	return nil
}

// loadResult builds the graph the ancestors and explore commands query.
func (c *CLI) loadResult(ctx context.Context, input string, opts ancestorsOpts) (*pipeline.Result, error) {
	mode, err := pipeline.ParseMode(opts.full)
	if err != nil {
		return nil, err
	}

	if opts.graph != "" {
		if input != "" || opts.course != 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "--graph cannot be combined with records")
		}
		g, err := availio.ImportGraph(opts.graph)
		if err != nil {
			return nil, err
		}
		return pipeline.FromGraph(mode, g)
	}

	records, _, err := c.loadRecords(ctx, input, opts.course)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	popts := c.Config.pipelineOptions(mode)
	popts.Logger = loggerFromContext(ctx)
	return runner.BuildWithCacheInfo(ctx, records, popts)
}
