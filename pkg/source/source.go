// Package source retrieves the activity records of a course.
//
// Course systems store modules in course order with their availability
// expression and whether they track completion. [Records] turns such a
// module list into the records the pipeline consumes, computing each
// module's predecessor along the way.
//
// Two sources are provided:
//
//   - [DirSource] reads one JSON file per course from a directory.
//   - [MongoSource] queries a MongoDB collection of module documents.
//
// Both return records in course order.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/errors"
)

// Completion tracking modes of a module.
const (
	CompletionNone      = 0
	CompletionManual    = 1
	CompletionAutomatic = 2
)

// Source fetches the records of one course.
type Source interface {
	// Fetch returns the course's records in course order. A course without
	// modules yields an error with the NOT_FOUND code.
	Fetch(ctx context.Context, courseID int64) ([]activity.Record, error)
}

// Module is a course module as the course system stores it.
type Module struct {
	ID                 int     `json:"id" bson:"id"`
	Course             int64   `json:"course,omitempty" bson:"course"`
	Name               string  `json:"name" bson:"name"`
	Availability       *string `json:"availability" bson:"availability"`
	Completion         int     `json:"completion" bson:"completion"`
	DeletionInProgress bool    `json:"deletioninprogress,omitempty" bson:"deletioninprogress"`
	Section            int     `json:"section,omitempty" bson:"section"`
	Position           int     `json:"position,omitempty" bson:"position"`
}

// TracksCompletion reports whether completion of m can be referenced.
func (m Module) TracksCompletion() bool { return m.Completion != CompletionNone }

// Records converts modules, given in course order, into activity records.
//
// The predecessor of a module is the closest earlier module that tracks
// completion; modules before the first such module get
// activity.NoPredecessor. Modules being deleted are dropped and never serve
// as predecessor.
func Records(modules []Module) []activity.Record {
	records := make([]activity.Record, 0, len(modules))
	last := activity.NoPredecessor
	for _, m := range modules {
		if m.DeletionInProgress {
			continue
		}
		id, name, pred := m.ID, m.Name, last
		rec := activity.Record{ID: &id, Name: &name, Predecessor: &pred}
		if m.Availability != nil && *m.Availability != "" {
			dep := *m.Availability
			rec.Depend = &dep
		}
		records = append(records, rec)
		if m.TracksCompletion() {
			last = m.ID
		}
	}
	return records
}

// Snapshot is the file form of a course: its modules in course order.
type Snapshot struct {
	Course  int64    `json:"course"`
	Modules []Module `json:"modules"`
}

// Decode reads either a JSON array of activity records or a [Snapshot]
// object. Snapshots are converted with [Records].
func Decode(data []byte) ([]activity.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var snap Snapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode course snapshot")
		}
		return Records(snap.Modules), nil
	}
	return activity.DecodeRecords(bytes.NewReader(trimmed))
}

// LoadFile reads records from a file in either format accepted by [Decode].
func LoadFile(path string) ([]activity.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "input %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}

// DirSource serves courses from files named course-<id>.json in Dir.
type DirSource struct {
	Dir string
}

// NewDirSource returns a DirSource reading from dir.
func NewDirSource(dir string) *DirSource { return &DirSource{Dir: dir} }

// Path returns the file holding the course.
func (s *DirSource) Path(courseID int64) string {
	return filepath.Join(s.Dir, fmt.Sprintf("course-%d.json", courseID))
}

// Fetch implements Source.
func (s *DirSource) Fetch(ctx context.Context, courseID int64) ([]activity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := LoadFile(s.Path(courseID))
	if errors.Is(err, errors.ErrCodeNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "course %d not found", courseID)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "course %d has no activities", courseID)
	}
	return records, nil
}

var _ Source = (*DirSource)(nil)
