// Package activity holds the course activities whose availability
// expressions become dependency graphs, together with the two passes that
// prepare them for graph construction: reference repair
// ([ResolveReferences]) and isolation filtering ([RemoveIsolated]).
package activity

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/expr"
)

// Reserved activity ids.
const (
	// MissingID identifies the synthetic placeholder that dangling
	// references are redirected to.
	MissingID = -2
	// PredecessorRef is the completion target meaning "the owning
	// activity's predecessor". It never identifies a real activity.
	PredecessorRef = -1
	// NoPredecessor is the predecessor of the first activity that tracks
	// completion.
	NoPredecessor = 0
)

// DefaultMissingLabel names the placeholder activity when no localized
// label is configured.
const DefaultMissingLabel = "Missing activity"

// Record is one activity as delivered by the data-retrieval side.
// Depend holds the JSON-encoded availability expression; null or empty means
// the activity is always available.
type Record struct {
	ID          *int    `json:"id" bson:"id"`
	Name        *string `json:"name" bson:"name"`
	Depend      *string `json:"depend" bson:"depend"`
	Predecessor *int    `json:"predecessor" bson:"predecessor"`
}

// NewRecord builds a record with all required fields set.
func NewRecord(id int, name, depend string, predecessor int) Record {
	r := Record{ID: &id, Name: &name, Predecessor: &predecessor}
	if depend != "" {
		r.Depend = &depend
	}
	return r
}

// DecodeRecords reads a JSON array of records from r.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode activity records")
	}
	return records, nil
}

// Activity is a course item with its parsed availability expression.
type Activity struct {
	ID          int
	Name        string
	Dependency  *expr.Expr // nil means always available
	Predecessor int
}

// NodeID returns the graph node identifier of the activity.
func (a Activity) NodeID() string { return NodeID(a.ID) }

// NodeID returns the graph node identifier for an activity id.
func NodeID(id int) string { return strconv.Itoa(id) }

// Source resolves the activity a completion leaf of a refers to,
// substituting the predecessor for [PredecessorRef].
func (a Activity) Source(leaf *expr.Expr) int {
	if leaf.Target == PredecessorRef {
		return a.Predecessor
	}
	return leaf.Target
}

// FromRecords validates records and parses their expressions.
//
// Any malformed record fails the whole call: a missing id, name or
// predecessor, a reserved id (-1 or -2), a duplicate id, or an expression that does not
// parse. Errors carry the offending activity id. Expressions nested deeper
// than maxDepth fail with DEPTH_EXCEEDED (see [expr.Parse]).
func FromRecords(records []Record, maxDepth int) ([]Activity, error) {
	acts := make([]Activity, 0, len(records))
	seen := make(map[int]bool, len(records))

	for i, r := range records {
		if r.ID == nil {
			return nil, errors.New(errors.ErrCodeInvalidRecord, "record %d: missing id", i)
		}
		id := *r.ID
		if id == MissingID || id == PredecessorRef {
			return nil, errors.New(errors.ErrCodeInvalidRecord, "activity %d: id is reserved", id)
		}
		if seen[id] {
			return nil, errors.New(errors.ErrCodeInvalidRecord, "activity %d: duplicate id", id)
		}
		seen[id] = true
		if r.Name == nil {
			return nil, errors.New(errors.ErrCodeInvalidRecord, "activity %d: missing name", id)
		}
		if r.Predecessor == nil {
			return nil, errors.New(errors.ErrCodeInvalidRecord, "activity %d: missing predecessor", id)
		}

		var dep *expr.Expr
		if r.Depend != nil {
			var err error
			dep, err = expr.ParseString(*r.Depend, maxDepth)
			if err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "activity %d", id)
			}
		}

		acts = append(acts, Activity{
			ID:          id,
			Name:        *r.Name,
			Dependency:  dep,
			Predecessor: *r.Predecessor,
		})
	}
	return acts, nil
}

// IDs returns the set of activity ids in acts.
func IDs(acts []Activity) map[int]bool {
	ids := make(map[int]bool, len(acts))
	for _, a := range acts {
		ids[a.ID] = true
	}
	return ids
}
