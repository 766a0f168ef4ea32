package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/availdep/pkg/activity"
	"github.com/matzehuels/availdep/pkg/cache"
	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/io"
	"github.com/matzehuels/availdep/pkg/observability"
)

const (
	and231 = `{"op":"&","c":[{"type":"completion","cm":2,"e":1},{"type":"completion","cm":3,"e":0}]}`
	flat   = `{"op":"&","c":[{"type":"completion","cm":2,"e":1},{"op":"|","c":[{"type":"completion","cm":3,"e":1},{"type":"completion","cm":4,"e":1}]}]}`
)

func course() []activity.Record {
	return []activity.Record{
		activity.NewRecord(2, "Reading", "", 0),
		activity.NewRecord(3, "Quiz", "", 2),
		activity.NewRecord(4, "Forum", "", 3),
		activity.NewRecord(5, "Exam", flat, 4),
		activity.NewRecord(6, "Label", "", 4),
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"yes", ModeFull, false},
		{"no", ModeSimplified, false},
		{"", ModeSimplified, false},
		{"YES", ModeSimplified, true},
		{"true", ModeSimplified, true},
		{"1", ModeSimplified, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidMode) {
			t.Errorf("ParseMode(%q) error code = %s", tt.in, errors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ModeFull.Param() != "yes" || ModeSimplified.Param() != "no" {
		t.Error("Param mismatch")
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"ancestors", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.MaxDepth != DefaultMaxDepth || opts.MaxWeight != DefaultMaxWeight {
		t.Errorf("limits = %d, %d", opts.MaxDepth, opts.MaxWeight)
	}
	if opts.MissingLabel != DefaultMissingLabel || opts.Title != HeadingSimplified {
		t.Errorf("labels = %q, %q", opts.MissingLabel, opts.Title)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON || opts.Logger == nil {
		t.Errorf("formats = %v", opts.Formats)
	}

	full := Options{Mode: ModeFull}
	_ = full.ValidateAndSetDefaults()
	if full.Title != HeadingFull {
		t.Errorf("full title = %q", full.Title)
	}

	bad := []Options{
		{Mode: Mode(7)},
		{MaxDepth: -1},
		{Formats: []string{"gif"}},
		{Highlight: "has space"},
		{MissingLabel: "  "},
	}
	for i, o := range bad {
		if err := o.ValidateAndSetDefaults(); !errors.IsInvalid(err) {
			t.Errorf("case %d: error = %v, want an INVALID_* error", i, err)
		}
	}
}

func TestBuildSimplified(t *testing.T) {
	res, err := Build(course(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	var edges []string
	for _, e := range res.Graph.Edges() {
		edges = append(edges, e.From+"->"+e.To)
	}
	if strings.Join(edges, " ") != "2->5 3->5 4->5" {
		t.Errorf("edges = %v", edges)
	}
	if _, ok := res.Graph.Node("6"); ok {
		t.Error("isolated activity 6 should be filtered in simplified mode")
	}
	if res.Repaired || res.Stats.Operators != 0 || res.Stats.Activities != 4 {
		t.Errorf("result = %+v", res.Stats)
	}
}

func TestBuildFull(t *testing.T) {
	records := []activity.Record{
		activity.NewRecord(2, "Reading", "", 0),
		activity.NewRecord(3, "Quiz", "", 2),
		activity.NewRecord(5, "Exam", and231, 3),
		activity.NewRecord(6, "Label", "", 3),
	}
	res, err := Build(records, Options{Mode: ModeFull})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Graph.Node("6"); !ok {
		t.Error("full mode keeps isolated activities")
	}
	if res.Stats.Operators != 2 || res.Stats.Edges != 4 {
		t.Errorf("stats = %+v", res.Stats)
	}
	a, err := res.AncestorsOf("5")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"5", "op1", "op2", "2", "3"} {
		if !a.Includes(id) {
			t.Errorf("ancestors of 5 should include %s", id)
		}
	}
	if _, err := res.AncestorsOf("nope"); !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("unknown node error = %v", err)
	}
}

func TestBuildRepairsDanglingReferences(t *testing.T) {
	records := []activity.Record{
		activity.NewRecord(2, "Reading", `{"op":"|","c":[{"type":"completion","cm":98,"e":1},{"type":"completion","cm":99,"e":1}]}`, 0),
		activity.NewRecord(3, "Quiz", `{"op":"&","c":[{"type":"completion","cm":97,"e":1}]}`, 2),
	}
	for _, mode := range []Mode{ModeSimplified, ModeFull} {
		res, err := Build(records, Options{Mode: mode, MissingLabel: "Fehlende Aktivität"})
		if err != nil {
			t.Fatal(err)
		}
		if !res.Repaired {
			t.Errorf("%s: Repaired = false", mode)
		}
		n, ok := res.Graph.Node("-2")
		if !ok || n.Label != "Fehlende Aktivität" {
			t.Errorf("%s: placeholder = %+v", mode, n)
		}
		if got := res.Graph.OutDegree("-2"); got != 3 {
			t.Errorf("%s: placeholder out-degree = %d, want 3", mode, got)
		}
		if res.Stats.Redirected != 3 {
			t.Errorf("%s: Stats.Redirected = %d, want 3", mode, res.Stats.Redirected)
		}
		if !strings.Contains(res.Summary(), "3 references to missing activities") {
			t.Errorf("%s: Summary() = %q", mode, res.Summary())
		}

		// A graph read back without its records reports the same count.
		back, err := FromGraph(mode, res.Graph)
		if err != nil {
			t.Fatal(err)
		}
		if !back.Repaired || back.Stats.Redirected != 3 {
			t.Errorf("%s: FromGraph repaired=%v redirected=%d", mode, back.Repaired, back.Stats.Redirected)
		}
	}
}

func TestBuildMalformedInput(t *testing.T) {
	deep := strings.Repeat(`{"op":"&","c":[`, 40) + strings.Repeat(`]}`, 40)
	tests := []struct {
		name    string
		records []activity.Record
		code    errors.Code
	}{
		{"bad json", []activity.Record{activity.NewRecord(1, "a", `{"op":`, 0)}, errors.ErrCodeInvalidExpression},
		{"missing id", []activity.Record{{Predecessor: new(int)}}, errors.ErrCodeInvalidRecord},
		{"missing name", []activity.Record{{ID: new(int), Predecessor: new(int)}}, errors.ErrCodeInvalidRecord},
		{"duplicate", []activity.Record{activity.NewRecord(1, "a", "", 0), activity.NewRecord(1, "b", "", 0)}, errors.ErrCodeInvalidRecord},
		{"too deep", []activity.Record{activity.NewRecord(1, "a", deep, 0)}, errors.ErrCodeDepthExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Build(tt.records, Options{})
			if res != nil {
				t.Error("no partial result on malformed input")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBuildCycleTolerated(t *testing.T) {
	records := []activity.Record{
		activity.NewRecord(1, "A", `{"op":"&","c":[{"type":"completion","cm":2,"e":1}]}`, 0),
		activity.NewRecord(2, "B", `{"op":"&","c":[{"type":"completion","cm":1,"e":1}]}`, 1),
	}
	res, err := Build(records, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stats.Cyclic {
		t.Error("cycle not reported")
	}
	a, _ := res.AncestorsOf("1")
	if len(a.Nodes) != 2 {
		t.Errorf("ancestors of 1 = %v", a.Nodes)
	}
	if !strings.Contains(res.Summary(), "cycle") {
		t.Errorf("Summary() = %q", res.Summary())
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	res, err := Build(course(), Options{Mode: ModeFull})
	if err != nil {
		t.Fatal(err)
	}

	artifacts, err := Render(ctx, res, Options{
		Mode:      ModeFull,
		Formats:   []string{FormatJSON, FormatAncestors, FormatDOT},
		Highlight: "5",
	})
	if err != nil {
		t.Fatal(err)
	}

	g, err := io.ReadGraph(bytes.NewReader(artifacts[FormatJSON]))
	if err != nil || g.NodeCount() != res.Graph.NodeCount() {
		t.Errorf("json artifact does not re-import: %v", err)
	}
	var anc struct {
		Nodes []string `json:"nodes"`
	}
	if err := json.Unmarshal(artifacts[FormatAncestors], &anc); err != nil || anc.Nodes[0] != "5" {
		t.Errorf("highlighted ancestors = %s (%v)", artifacts[FormatAncestors], err)
	}
	dot := string(artifacts[FormatDOT])
	if !strings.Contains(dot, HeadingFull) || !strings.Contains(dot, "gainsboro") {
		t.Errorf("dot lacks title or dimming:\n%s", dot)
	}

	if _, err := Render(ctx, res, Options{Highlight: "404"}); !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("unknown highlight error = %v", err)
	}
}

func TestRenderSVG(t *testing.T) {
	res, err := Build(course(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := Render(context.Background(), res, Options{Formats: []string{FormatSVG}})
	if err != nil {
		t.Fatalf("Render svg: %v", err)
	}
	if !bytes.Contains(artifacts[FormatSVG], []byte("<svg")) {
		t.Errorf("svg artifact = %.80s", artifacts[FormatSVG])
	}
}

type recordingHooks struct {
	observability.NoopCacheHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "hit:"+keyType)
}

func (h *recordingHooks) count(event string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestRunnerCaching(t *testing.T) {
	ctx := context.Background()
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	opts := Options{Mode: ModeFull, Formats: []string{FormatJSON, FormatDOT}}
	first, err := r.Execute(ctx, course(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.GraphHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, course(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.GraphHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if second.GraphHash != first.GraphHash {
		t.Error("graph hash changed between runs")
	}
	if !bytes.Equal(first.Artifacts[FormatDOT], second.Artifacts[FormatDOT]) {
		t.Error("cached artifact differs")
	}
	if hooks.count("hit:graph") != 1 || hooks.count("hit:artifact") != 2 {
		t.Errorf("hook events = %v", hooks.events)
	}

	simplified, err := r.Execute(ctx, course(), Options{Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatal(err)
	}
	if simplified.CacheInfo.GraphHit {
		t.Error("mode must be part of the graph key")
	}

	opts.Refresh = true
	refreshed, err := r.Execute(ctx, course(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.GraphHit || refreshed.CacheInfo.RenderHit {
		t.Error("refresh must bypass the cache")
	}
}

func TestRunnerRejectsInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), course(), Options{Formats: []string{"pdf"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v", err)
	}
}

func TestStatsTiming(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), course(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.BuildTime < 0 || res.Stats.RenderTime < 0 || res.Stats.BuildTime > time.Minute {
		t.Errorf("stats = %+v", res.Stats)
	}
}
