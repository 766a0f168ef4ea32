package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/pipeline"
	"github.com/matzehuels/availdep/pkg/source"
)

// buildOpts holds the command-line flags of the build command.
type buildOpts struct {
	course    int64  // fetch the course from the configured source
	full      string // "yes" or "no"
	formats   string // comma-separated output formats
	highlight string // node whose ancestors stay undimmed
	title     string // graph label, defaults to the mode's heading
	output    string // output file (one format) or base path (several)
	noCache   bool
	refresh   bool
}

// extensions maps formats to the file suffix used for multi-format output.
var extensions = map[string]string{
	pipeline.FormatJSON:      ".json",
	pipeline.FormatAncestors: ".ancestors.json",
	pipeline.FormatDOT:       ".dot",
	pipeline.FormatSVG:       ".svg",
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [file]",
		Short: "Build the availability dependency graph of a course",
		Long: `Build reads the activities of a course, either from a JSON file (an array of
records or a course snapshot) or with --course from the configured source,
and writes the dependency graph.

With --full=no (the default) activities are linked directly and activities
without any dependency are left out. With --full=yes every AND/OR operator
becomes a node of its own.`,
		Example: `  availdep build course.json
  availdep build course.json --full=yes -f json,svg -o graph
  availdep build --course 42 -f svg --highlight 17 -o course42.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runBuild(cmd.Context(), cmd.OutOrStdout(), input, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.course, "course", 0, "course id to fetch from the configured source")
	cmd.Flags().StringVar(&opts.full, "full", "no", "build the full graph with operator nodes (yes|no)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), ancestors, dot, svg (comma-separated)")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "node whose ancestors stay undimmed")
	cmd.Flags().StringVar(&opts.title, "title", "", "graph label (defaults to the mode's heading)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "rebuild even if a cached graph exists")

	return cmd
}

func (c *CLI) runBuild(ctx context.Context, stdout io.Writer, input string, opts buildOpts) error {
	logger := loggerFromContext(ctx)

	mode, err := pipeline.ParseMode(opts.full)
	if err != nil {
		return err
	}
	popts := c.Config.pipelineOptions(mode)
	popts.Formats = parseFormats(opts.formats)
	popts.Highlight = opts.highlight
	popts.Title = opts.title
	popts.Refresh = opts.refresh
	popts.Logger = logger
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	records, name, err := c.loadRecords(ctx, input, opts.course)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, records, popts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built %s", res.Summary()))

	if len(popts.Formats) == 1 && opts.output == "" {
		_, err := stdout.Write(res.Artifacts[popts.Formats[0]])
		return err
	}

	printSuccess("%s", pipeline.Heading(res.Mode))
	printStats(res.Stats.Nodes, res.Stats.Operators, res.Stats.Edges, res.CacheInfo.GraphHit)
	if res.Repaired {
		printWarning("references to deleted activities point to %q", popts.MissingLabel)
	}
	if res.Stats.Cyclic {
		printWarning("the graph contains a dependency cycle")
	}

	paths := outputPaths(opts.output, name, popts.Formats)
	for _, format := range popts.Formats {
		path := paths[format]
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// loadRecords reads records from input, or fetches the course when input is
// empty. The returned name is used to derive output file names.
func (c *CLI) loadRecords(ctx context.Context, input string, course int64) ([]activity.Record, string, error) {
	logger := loggerFromContext(ctx)

	switch {
	case input != "" && course != 0:
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "give either a file or --course, not both")
	case input != "":
		records, err := source.LoadFile(input)
		if err != nil {
			return nil, "", err
		}
		logger.Debug("loaded records", "file", input, "records", len(records))
		return records, strings.TrimSuffix(input, filepath.Ext(input)), nil
	case course > 0:
		src, closeSrc, err := c.newSource(ctx)
		if err != nil {
			return nil, "", err
		}
		defer closeSrc()

		prog := newProgress(logger)
		records, err := src.Fetch(ctx, course)
		if err != nil {
			return nil, "", err
		}
		prog.done(fmt.Sprintf("Fetched course %d: %d activities", course, len(records)))
		return records, fmt.Sprintf("course-%d", course), nil
	case course < 0:
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "course id must be positive, got %d", course)
	}
	return nil, "", errors.New(errors.ErrCodeInvalidInput, "no input: give a file or --course")
}

// outputPaths assigns a file to every format. A single format is written
// to output itself; several formats share output as base path, with known
// extensions stripped from it. Without output the base is name.
func outputPaths(output, name string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}

	base := output
	if base == "" {
		base = name
	}
	for _, ext := range []string{".ancestors.json", ".json", ".dot", ".svg"} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	for _, f := range formats {
		paths[f] = base + extensions[f]
	}
	return paths
}
