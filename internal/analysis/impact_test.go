package analysis

import (
	"testing"

	"rustex/internal/git"
	"rustex/internal/graph"
	"rustex/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// impactProject wires main -> format -> pad as a two-hop call chain plus
// an untouched standalone function in a second file.
func impactProject() *graph.Project {
	p := graph.NewProject("demo", "/tmp/demo")

	pad := &model.CodeElement{
		ID: "function_pad_1", ElementType: model.TypeFunction, Name: "pad",
		Visibility: model.Private(),
		Location:   model.Location{File: "src/lib.rs", StartLine: 1, EndLine: 5},
		Hierarchy:  model.ElementHierarchy{QualifiedName: "pad"},
	}
	format := &model.CodeElement{
		ID: "function_format_1", ElementType: model.TypeFunction, Name: "format",
		Visibility: model.Public(),
		Location:   model.Location{File: "src/lib.rs", StartLine: 7, EndLine: 14},
		Hierarchy:  model.ElementHierarchy{QualifiedName: "format"},
	}
	other := &model.CodeElement{
		ID: "function_other_1", ElementType: model.TypeFunction, Name: "other",
		Visibility: model.Public(),
		Location:   model.Location{File: "src/lib.rs", StartLine: 16, EndLine: 20},
		Hierarchy:  model.ElementHierarchy{QualifiedName: "other"},
	}
	mainFn := &model.CodeElement{
		ID: "function_main_1", ElementType: model.TypeFunction, Name: "main",
		Visibility: model.Private(),
		Location:   model.Location{File: "src/main.rs", StartLine: 1, EndLine: 6},
		Hierarchy:  model.ElementHierarchy{QualifiedName: "main"},
	}

	libRefs := []model.CrossReference{
		{
			FromElementID: "function_format_1",
			ToElementID:   strPtr("function_pad_1"),
			ReferenceType: model.RefFunctionCall,
			ReferenceText: "pad",
			IsResolved:    true,
			Context:       model.ReferenceContext{Scope: "format"},
		},
	}
	mainRefs := []model.CrossReference{
		{
			FromElementID: "function_main_1",
			ToElementID:   strPtr("function_format_1"),
			ReferenceType: model.RefFunctionCall,
			ReferenceText: "format",
			IsResolved:    true,
			Context:       model.ReferenceContext{Scope: "main"},
		},
	}

	p.AddFileResult(graph.FileRecord{Path: "src/lib.rs", Hash: "aa", Lines: 20},
		[]*model.CodeElement{pad, format, other}, libRefs)
	p.AddFileResult(graph.FileRecord{Path: "src/main.rs", Hash: "bb", Lines: 6},
		[]*model.CodeElement{mainFn}, mainRefs)
	return p
}

func TestAnalyze_DirectAndIndirect(t *testing.T) {
	a := NewAnalyzer(impactProject())

	// A change inside pad's span.
	report := a.Analyze([]git.ChangedFile{{Path: "src/lib.rs", ChangedLines: []int{3}}})

	require.Len(t, report.Direct, 1)
	assert.Equal(t, "function_pad_1", report.Direct[0].ID)

	// format calls pad; main is two hops away and stays out.
	require.Len(t, report.Indirect, 1)
	assert.Equal(t, "function_format_1", report.Indirect[0].ID)
	assert.False(t, report.Empty())
}

func TestAnalyze_DirectWinsOverIndirect(t *testing.T) {
	a := NewAnalyzer(impactProject())

	// Both pad and its caller changed: format is direct, not indirect.
	report := a.Analyze([]git.ChangedFile{{Path: "src/lib.rs", ChangedLines: []int{3, 9}}})

	require.Len(t, report.Direct, 2)
	assert.Equal(t, "function_pad_1", report.Direct[0].ID)
	assert.Equal(t, "function_format_1", report.Direct[1].ID)

	require.Len(t, report.Indirect, 1)
	assert.Equal(t, "function_main_1", report.Indirect[0].ID)
}

func TestAnalyze_UnknownFileAndGapLines(t *testing.T) {
	a := NewAnalyzer(impactProject())

	report := a.Analyze([]git.ChangedFile{
		{Path: "src/nope.rs", ChangedLines: []int{1}},
		{Path: "src/lib.rs", ChangedLines: []int{6}}, // between pad and format
	})
	assert.True(t, report.Empty())
}

func TestAnalyze_DeduplicatesAcrossHunks(t *testing.T) {
	a := NewAnalyzer(impactProject())

	report := a.Analyze([]git.ChangedFile{
		{Path: "src/lib.rs", ChangedLines: []int{2}},
		{Path: "src/lib.rs", ChangedLines: []int{4}},
	})
	require.Len(t, report.Direct, 1)
	assert.Equal(t, "function_pad_1", report.Direct[0].ID)
}
