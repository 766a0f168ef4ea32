// Package pkg holds the libraries behind availdep, which graphs the
// availability dependencies between the activities of a course.
//
// # Overview
//
// Every activity of a course may carry an availability condition: a tree of
// AND/OR operators over "activity X is (not) complete" leaves. availdep
// turns those conditions into a directed graph whose edges point from the
// activity that must be completed to the one it unlocks.
//
// The packages, bottom-up:
//
//  1. [expr] - Parsing and walking availability expressions
//  2. [activity] - Activity records, reference repair, isolation filter
//  3. [graph] - Node/edge graph with ancestor queries
//  4. [build] - Simplified and full graph builders
//  5. [io] - JSON encoding of graphs and ancestries
//  6. [render/nodelink] - DOT and SVG rendering via Graphviz
//  7. [pipeline] - Orchestration and caching (records -> graph -> artifacts)
//
// Supporting packages: [cache] (file, Redis and null caches), [source]
// (course snapshots from files or MongoDB), [errors] (coded errors) and
// [observability] (instrumentation hooks).
//
// # Data Flow
//
//	Course snapshot (file or MongoDB)
//	         ↓
//	    [source] package (module order -> predecessors -> records)
//	         ↓
//	    [activity] package (parse, repair dangling references, filter)
//	         ↓
//	    [build] package (simplified or full graph)
//	         ↓
//	    [io] / [render/nodelink] packages (JSON, ancestors, DOT, SVG)
//
// # Quick Start
//
//	records, _ := source.LoadFile("course-42.json")
//	res, err := pipeline.Build(records, pipeline.Options{Mode: pipeline.ModeFull})
//	if err != nil {
//	    return err
//	}
//	a, _ := res.AncestorsOf("17")
//	fmt.Println(a.Nodes)
//
// [expr]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/expr
// [activity]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/activity
// [graph]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/graph
// [build]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/build
// [io]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/io
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/cache
// [source]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/source
// [errors]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/availdep/pkg/observability
package pkg
