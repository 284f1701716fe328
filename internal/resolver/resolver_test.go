package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rustex/internal/extractor"
	"rustex/internal/model"
	"rustex/internal/parser"
)

// analyze runs the full per-file pipeline: parse, visit, resolve.
func analyze(t *testing.T, source string) ([]*model.CodeElement, []model.CrossReference, Stats) {
	t.Helper()
	src := []byte(source)
	tree, err := parser.New().Parse(context.Background(), src)
	require.NoError(t, err)

	v := extractor.NewVisitor("test.rs", src, extractor.DefaultOptions())
	v.Walk(tree.RootNode())
	elements, usages := v.ElementsAndUsages()

	refs, stats := New().Resolve(elements, usages)
	return elements, refs, stats
}

func findByName(t *testing.T, elements []*model.CodeElement, name string) *model.CodeElement {
	t.Helper()
	for _, e := range elements {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("element %q not found", name)
	return nil
}

func TestResolve_SameScope(t *testing.T) {
	elements, refs, stats := analyze(t,
		`pub fn helper() -> i32 { 42 } pub fn main() -> i32 { helper() }`)

	require.Len(t, elements, 2)
	require.Len(t, refs, 1)

	helper := findByName(t, elements, "helper")
	mainFn := findByName(t, elements, "main")

	ref := refs[0]
	assert.Equal(t, model.RefFunctionCall, ref.ReferenceType)
	assert.Equal(t, "helper", ref.ReferenceText)
	assert.Equal(t, mainFn.ID, ref.FromElementID)
	assert.True(t, ref.IsResolved)
	require.NotNil(t, ref.ToElementID)
	assert.Equal(t, helper.ID, *ref.ToElementID)
	assert.Equal(t, "main", ref.Context.Scope)
	assert.False(t, ref.Context.IsDefinition)

	assert.Equal(t, Stats{Attempted: 1, Resolved: 1}, stats)
}

func TestResolve_AncestryFailure(t *testing.T) {
	_, refs, stats := analyze(t, `
mod utils {
    pub fn f() {}
}

fn main() {
    f();
}
`)
	require.Len(t, refs, 1)
	assert.False(t, refs[0].IsResolved, "a declaration inside a module the call site is not nested in never resolves")
	assert.Nil(t, refs[0].ToElementID)
	assert.Empty(t, refs[0].Suggestion, "the name exists, it is only out of scope")
	assert.Equal(t, 1, stats.Unresolved)
}

func TestResolve_InsideModule(t *testing.T) {
	elements, refs, _ := analyze(t, `
mod utils {
    pub fn helper() {}

    pub fn caller() {
        helper();
    }
}
`)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsResolved)
	helper := findByName(t, elements, "helper")
	assert.Equal(t, helper.ID, *refs[0].ToElementID)
	assert.Equal(t, "utils::caller", refs[0].Context.Scope)
}

func TestResolve_NearestScopeWins(t *testing.T) {
	elements, refs, _ := analyze(t, `
fn helper() {}

mod inner {
    pub fn helper() {}

    pub fn caller() {
        helper();
    }
}
`)
	require.Len(t, refs, 1)
	require.True(t, refs[0].IsResolved)

	var innerHelper *model.CodeElement
	for _, e := range elements {
		if e.Name == "helper" && e.Hierarchy.QualifiedName == "inner::helper" {
			innerHelper = e
		}
	}
	require.NotNil(t, innerHelper)
	assert.Equal(t, innerHelper.ID, *refs[0].ToElementID, "the nearest enclosing scope shadows the root declaration")
}

func TestResolve_RootVisibleFromEverywhere(t *testing.T) {
	elements, refs, _ := analyze(t, `
pub struct Config;

mod deep {
    pub mod deeper {
        pub fn make() -> super::super::Config {
            loop {}
        }
    }
}
`)
	var configRefs int
	config := findByName(t, elements, "Config")
	for _, ref := range refs {
		if ref.IsResolved && *ref.ToElementID == config.ID {
			configRefs++
		}
	}
	assert.Greater(t, configRefs, 0, "root declarations resolve from any nesting depth")
}

func TestResolve_SelfRecursion(t *testing.T) {
	elements, refs, _ := analyze(t, `
pub fn fact(n: u64) -> u64 {
    if n <= 1 { 1 } else { fact(n - 1) }
}
`)
	require.Len(t, refs, 1)
	require.True(t, refs[0].IsResolved)
	fact := findByName(t, elements, "fact")
	assert.Equal(t, fact.ID, *refs[0].ToElementID)
}

func TestResolve_Suggestion(t *testing.T) {
	_, refs, _ := analyze(t, `
pub fn helper() {}

pub fn run() {
    helprr();
}
`)
	require.Len(t, refs, 1)
	assert.False(t, refs[0].IsResolved)
	assert.Equal(t, "helper", refs[0].Suggestion)
}

func TestResolve_Deterministic(t *testing.T) {
	source := `
mod a {
    pub fn one() {}
    pub fn two() { one(); missing(); }
}
pub fn three() { three(); }
`
	_, first, _ := analyze(t, source)
	_, second, _ := analyze(t, source)
	assert.Equal(t, first, second)
}

func TestResolve_TypeUsage(t *testing.T) {
	elements, refs, _ := analyze(t, `
pub struct Point {
    pub x: f64,
}

impl Point {
    pub fn x(&self) -> f64 { self.x }
}
`)
	point := findByName(t, elements, "Point")

	var resolvedType bool
	for _, ref := range refs {
		if ref.ReferenceType == model.RefTypeUsage && ref.IsResolved && *ref.ToElementID == point.ID {
			resolvedType = true
		}
	}
	assert.True(t, resolvedType, "the impl header resolves to the struct declaration")
}
