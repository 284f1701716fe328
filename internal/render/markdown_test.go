package render

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rustex/internal/graph"
	"rustex/internal/knowledge"
	"rustex/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

// renderProject builds a small two-file crate: mod util with one documented
// function, a main with a resolved call into it, and two one-line constants.
func renderProject() *graph.Project {
	p := graph.NewProject("demo", "/tmp/demo")
	p.Edition = "2021"

	module := &model.CodeElement{
		ID:          "module_util_1",
		ElementType: model.TypeModule,
		Name:        "util",
		Visibility:  model.Public(),
		Location:    model.Location{File: "src/lib.rs", StartLine: 1, EndLine: 8},
		Hierarchy: model.ElementHierarchy{
			ChildrenIDs:   []string{"function_greet_1"},
			QualifiedName: "util",
		},
	}
	greet := &model.CodeElement{
		ID:          "function_greet_1",
		ElementType: model.TypeFunction,
		Name:        "greet",
		Signature:   "pub fn greet(name: &str) -> String",
		Visibility:  model.Public(),
		DocComments: []string{"Formats a greeting."},
		Location:    model.Location{File: "src/lib.rs", StartLine: 3, EndLine: 7},
		Complexity:  intPtr(8),
		Metrics:     &model.ComplexityMetrics{Cyclomatic: 3, Cognitive: 2, LinesOfCode: 5},
		Hierarchy: model.ElementHierarchy{
			ParentID:      strPtr("module_util_1"),
			NestingLevel:  1,
			QualifiedName: "util::greet",
			ModulePath:    "util",
		},
	}
	mainFn := &model.CodeElement{
		ID:          "function_main_1",
		ElementType: model.TypeFunction,
		Name:        "main",
		Signature:   "fn main()",
		Visibility:  model.Private(),
		Location:    model.Location{File: "src/main.rs", StartLine: 1, EndLine: 20},
		Complexity:  intPtr(16),
		Metrics:     &model.ComplexityMetrics{Cyclomatic: 6, Cognitive: 4, LinesOfCode: 20},
		Hierarchy:   model.ElementHierarchy{QualifiedName: "main"},
	}
	retries := &model.CodeElement{
		ID:          "constant_MAX_RETRIES_1",
		ElementType: model.TypeConstant,
		Name:        "MAX_RETRIES",
		Signature:   "const MAX_RETRIES: u32 = 3",
		Visibility:  model.Private(),
		Location:    model.Location{File: "src/main.rs", StartLine: 22, EndLine: 22},
		Hierarchy:   model.ElementHierarchy{QualifiedName: "MAX_RETRIES"},
	}
	timeout := &model.CodeElement{
		ID:          "constant_TIMEOUT_MS_1",
		ElementType: model.TypeConstant,
		Name:        "TIMEOUT_MS",
		Signature:   "const TIMEOUT_MS: u64 = 500",
		Visibility:  model.Private(),
		Location:    model.Location{File: "src/main.rs", StartLine: 23, EndLine: 23},
		Hierarchy:   model.ElementHierarchy{QualifiedName: "TIMEOUT_MS"},
	}

	refs := []model.CrossReference{
		{
			FromElementID: "function_main_1",
			ToElementID:   strPtr("function_greet_1"),
			ReferenceType: model.RefFunctionCall,
			ReferenceText: "greet",
			IsResolved:    true,
			Context:       model.ReferenceContext{Scope: "main"},
		},
		{
			FromElementID: "function_main_1",
			ReferenceType: model.RefTypeUsage,
			ReferenceText: "Config",
			Context:       model.ReferenceContext{Scope: "main"},
			Suggestion:    "Conf",
		},
	}

	p.AddFileResult(graph.FileRecord{Path: "src/lib.rs", Hash: "aaaa", Lines: 8},
		[]*model.CodeElement{module, greet}, nil)
	p.AddFileResult(graph.FileRecord{Path: "src/main.rs", Hash: "bbbb", Lines: 23},
		[]*model.CodeElement{mainFn, retries, timeout}, refs)
	return p
}

func TestRenderProject_Statistics(t *testing.T) {
	g := NewMarkdownGenerator(renderProject(), nil)
	doc := g.RenderProject()

	assert.Contains(t, doc, "# demo Code Analysis")
	assert.Contains(t, doc, "Rust edition 2021.")
	assert.Contains(t, doc, "| Files analyzed | 2 |")
	assert.Contains(t, doc, "| Lines of code | 31 |")
	assert.Contains(t, doc, "| Elements extracted | 5 |")
	assert.Contains(t, doc, "| function count | 2 |")
	assert.Contains(t, doc, "| module count | 1 |")
	assert.Contains(t, doc, "| constant count | 2 |")
	assert.Contains(t, doc, "| Resolved references | 1 (50%) |")
	assert.Contains(t, doc, "| Documented elements | 1 |")
	assert.Contains(t, doc, "| Average complexity | 4.8 |")
	assert.Contains(t, doc, "| Highest complexity | 16 (`function_main_1`) |")
}

func TestRenderProject_ModuleSections(t *testing.T) {
	g := NewMarkdownGenerator(renderProject(), nil)
	doc := g.RenderProject()

	assert.Contains(t, doc, "### crate root")
	assert.Contains(t, doc, "### `util`")
	assert.Contains(t, doc, "- `util` (module, public)")
	assert.Contains(t, doc, "- `main` (function, private), complexity 16 (medium)")
	assert.Contains(t, doc, "- `greet` (function, public), complexity 8 (low): Formats a greeting.")
}

func TestRenderProject_HotspotsAndDiagrams(t *testing.T) {
	g := NewMarkdownGenerator(renderProject(), nil)
	doc := g.RenderProject()

	assert.Contains(t, doc, "## Complexity Hotspots")
	assert.Contains(t, doc, "| `main` | src/main.rs:1 | 16 | medium | 6 | 4 |")
	assert.Contains(t, doc, "| `util::greet` | src/lib.rs:3 | 8 | low | 3 | 2 |")

	assert.Contains(t, doc, "## Module Hierarchy")
	assert.Contains(t, doc, "## Dependency Flow")
	assert.Contains(t, doc, "```mermaid")
}

func TestRenderProject_UnresolvedAppendix(t *testing.T) {
	g := NewMarkdownGenerator(renderProject(), nil)
	doc := g.RenderProject()

	assert.Contains(t, doc, "## Unresolved References")
	assert.Contains(t, doc, "| `Config` | type_usage | `main` | did you mean `Conf`? |")
}

func TestHotspots_OrderAndLimit(t *testing.T) {
	g := NewMarkdownGenerator(renderProject(), nil)

	hotspots := g.Hotspots(10)
	require.Len(t, hotspots, 2)
	assert.Equal(t, "function_main_1", hotspots[0].ID)
	assert.Equal(t, "function_greet_1", hotspots[1].ID)

	assert.Len(t, g.Hotspots(1), 1)
}

func TestGenerate_WritesDocumentAndReport(t *testing.T) {
	dir := t.TempDir()
	g := NewMarkdownGenerator(renderProject(), nil)
	require.NoError(t, g.Generate(context.Background(), dir))

	doc, err := os.ReadFile(filepath.Join(dir, "ANALYSIS.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "# demo Code Analysis")

	raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var report PipelineReport
	require.NoError(t, json.Unmarshal(raw, &report))

	assert.Equal(t, "generate", report.Mode)
	require.Len(t, report.Stages, 3)
	assert.Equal(t, "init_output_dir", report.Stages[0].Name)
	assert.Equal(t, "render_markdown", report.Stages[1].Name)
	assert.Equal(t, "write_output", report.Stages[2].Name)
	assert.Equal(t, 0, report.Summary.FailedStages)
	require.Len(t, report.Signals, 1)
	assert.Equal(t, "generate_complete", report.Signals[0].Code)
}

type stubSummarizer struct {
	overview string
	detail   string
	err      error
}

func (s *stubSummarizer) SummarizeProject(ctx context.Context, chunks []knowledge.Chunk) (string, error) {
	return s.overview, s.err
}

func (s *stubSummarizer) SummarizeElement(ctx context.Context, chunk knowledge.Chunk, code string, related []knowledge.Chunk) (string, error) {
	return s.detail, s.err
}

func TestGenerate_AppendsAINotes(t *testing.T) {
	dir := t.TempDir()
	g := NewMarkdownGenerator(renderProject(), &stubSummarizer{
		overview: "The crate splits IO from formatting.",
		detail:   "Entry point drives the greeting flow.",
	})
	require.NoError(t, g.Generate(context.Background(), dir))

	doc, err := os.ReadFile(filepath.Join(dir, "ANALYSIS.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "## Architecture Notes")
	assert.Contains(t, string(doc), "The crate splits IO from formatting.")
	assert.Contains(t, string(doc), "### `main`")
	assert.Contains(t, string(doc), "Entry point drives the greeting flow.")
}

func TestGenerate_SummarizerFailureKeepsDocument(t *testing.T) {
	dir := t.TempDir()
	g := NewMarkdownGenerator(renderProject(), &stubSummarizer{err: errors.New("quota exhausted")})
	require.NoError(t, g.Generate(context.Background(), dir))

	doc, err := os.ReadFile(filepath.Join(dir, "ANALYSIS.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "# demo Code Analysis")
	assert.NotContains(t, string(doc), "## Architecture Notes")

	raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var report PipelineReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, 1, report.Summary.FailedStages)
	assert.Equal(t, 1, report.Summary.SignalsBySeverity["warning"])
}
