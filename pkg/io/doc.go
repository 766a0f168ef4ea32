// Package io provides the JSON wire formats of availability dependency
// graphs and re-imports them.
//
// # Simplified Format
//
// Operator structure is absent and every edge carries the name of the
// activity it unlocks:
//
//	{
//	  "nodes": [{"id": "2", "name": "Reading"}, {"id": "5", "name": "Exam"}],
//	  "edges": [{"source": "2", "target": "5", "name": "Exam"}]
//	}
//
// # Full Format
//
// Nodes carry their genus and the weight layout hint, edges the genus of
// their target:
//
//	{
//	  "nodes": [
//	    {"id": "5", "name": "Exam", "genus": "activity", "weight": 1},
//	    {"id": "op1", "name": "&", "genus": "operator", "weight": 1}
//	  ],
//	  "edges": [{"source": "op1", "target": "5", "toGenus": "activity"}]
//	}
//
// Node ids are always JSON strings, since operator ids are not numeric.
//
// # Ancestors
//
// [WriteAncestors] emits the precomputed ancestry of every node keyed by
// node id. Edge references carry the edge's index in the graph's edge list
// so a renderer can match them to the edges it drew.
//
// # Import
//
// [ReadGraph] accepts either graph format and rebuilds a [graph.Graph].
// Nodes without a genus are activities. Re-importing does not regenerate
// operator ids, so an exported full graph round-trips unchanged.
package io
