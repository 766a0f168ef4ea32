package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/observability"
)

// run executes the root command with caching disabled and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(observability.Reset)
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = os.Stderr })

	cfg := writeConfig(t, "[cache]\nbackend = \"none\"\n")
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func courseFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeCourse(t, dir)
	return filepath.Join(dir, "course-42.json")
}

func TestBuildCommandStdout(t *testing.T) {
	out, err := run(t, "build", courseFile(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var g graphBody
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatalf("stdout is not a graph: %v\n%s", err, out)
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 3 {
		t.Errorf("got %d nodes, %d edges, want 3 and 3", len(g.Nodes), len(g.Edges))
	}
}

func TestBuildCommandFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "graph")
	if _, err := run(t, "build", courseFile(t), "--full=yes", "-f", "json,dot,ancestors", "-o", base); err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, ext := range []string{".json", ".dot", ".ancestors.json"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			t.Errorf("missing output %s: %v", ext, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("output %s is empty", ext)
		}
	}
}

func TestBuildCommandErrors(t *testing.T) {
	file := courseFile(t)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"mode", []string{"build", file, "--full=true"}, errors.ErrCodeInvalidMode},
		{"format", []string{"build", file, "-f", "pdf"}, errors.ErrCodeInvalidFormat},
		{"no input", []string{"build"}, errors.ErrCodeInvalidInput},
		{"file and course", []string{"build", file, "--course", "42"}, errors.ErrCodeInvalidInput},
		{"missing file", []string{"build", file + ".absent"}, errors.ErrCodeNotFound},
		{"unknown highlight", []string{"build", file, "-f", "dot", "--highlight", "404"}, errors.ErrCodeUnknownNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBuildCommandCourse(t *testing.T) {
	dir := t.TempDir()
	writeCourse(t, dir)
	cfg := writeConfig(t, "[cache]\nbackend = \"none\"\n\n[source]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfg, "build", "--course", "42", "-f", "ancestors"})
	t.Cleanup(observability.Reset)
	if err := root.Execute(); err != nil {
		t.Fatalf("build --course: %v", err)
	}
	if !strings.Contains(out.String(), `"5"`) {
		t.Errorf("ancestors output lacks node 5:\n%s", out.String())
	}
}

func TestAncestorsCommand(t *testing.T) {
	file := courseFile(t)

	out, err := run(t, "ancestors", "5", file, "--json")
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	var a struct {
		Nodes []string `json:"nodes"`
		Edges []struct {
			Source string `json:"source"`
		} `json:"edges"`
	}
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(a.Nodes) != 3 || a.Nodes[0] != "5" {
		t.Errorf("nodes = %v, want 5 and its two ancestors", a.Nodes)
	}

	out, err = run(t, "ancestors", "3", file)
	if err != nil {
		t.Fatalf("ancestors table: %v", err)
	}
	if !strings.Contains(out, "Quiz") || !strings.Contains(out, "Reading") {
		t.Errorf("table lacks activity names:\n%s", out)
	}

	if _, err := run(t, "ancestors", "77", file); !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("unknown node error = %v", err)
	}
}

func TestAncestorsFromExportedGraph(t *testing.T) {
	graphFile := filepath.Join(t.TempDir(), "graph.json")
	if _, err := run(t, "build", courseFile(t), "--full=yes", "-f", "json", "-o", graphFile); err != nil {
		t.Fatalf("build: %v", err)
	}

	out, err := run(t, "ancestors", "5", "--graph", graphFile, "--full=yes", "--json")
	if err != nil {
		t.Fatalf("ancestors --graph: %v", err)
	}
	if !strings.Contains(out, `"op`) {
		t.Errorf("full ancestry lacks operator nodes:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "version:") {
		t.Errorf("version output = %q", out)
	}
}
