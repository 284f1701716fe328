package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rustex/internal/model"
)

func visitSource(t *testing.T, source string, opts Options) ([]*model.CodeElement, []model.RawUsage) {
	t.Helper()
	root, src := parseRust(t, source)
	v := NewVisitor("test.rs", src, opts)
	v.Walk(root)
	return v.ElementsAndUsages()
}

func findElement(t *testing.T, elements []*model.CodeElement, et model.ElementType, name string) *model.CodeElement {
	t.Helper()
	for _, e := range elements {
		if e.ElementType == et && e.Name == name {
			return e
		}
	}
	t.Fatalf("element %s %q not found", et, name)
	return nil
}

func TestVisitor_SampleFile(t *testing.T) {
	source, err := os.ReadFile(filepath.Join("testdata", "sample.rs"))
	require.NoError(t, err)

	elements, usages := visitSource(t, string(source), DefaultOptions())

	byID := make(map[string]*model.CodeElement)
	for _, e := range elements {
		byID[e.ID] = e
	}

	t.Run("Overall Count", func(t *testing.T) {
		assert.Equal(t, 20, len(elements), "every declaration in the fixture yields one element")
	})

	t.Run("Ids Are Unique", func(t *testing.T) {
		assert.Equal(t, len(elements), len(byID))
	})

	t.Run("Every Element Is Valid", func(t *testing.T) {
		for _, e := range elements {
			assert.NoError(t, e.Validate())
			require.NotNil(t, e.Complexity)
			assert.GreaterOrEqual(t, *e.Complexity, 1)
			require.NotNil(t, e.Metrics)
			assert.Len(t, e.Hash, 16)
		}
	})

	t.Run("Hierarchy Consistency", func(t *testing.T) {
		for _, e := range elements {
			if e.Hierarchy.ParentID == nil {
				assert.Equal(t, 0, e.Hierarchy.NestingLevel)
				continue
			}
			parent, ok := byID[*e.Hierarchy.ParentID]
			require.True(t, ok, "parent of %s must be in the element set", e.ID)
			assert.Contains(t, parent.Hierarchy.ChildrenIDs, e.ID)
			assert.Equal(t, parent.Hierarchy.NestingLevel+1, e.Hierarchy.NestingLevel)
		}
	})

	t.Run("Functions", func(t *testing.T) {
		greet := findElement(t, elements, model.TypeFunction, "greet")
		assert.Equal(t, "pub fn greet(name: &str) -> String", greet.Signature)
		assert.Equal(t, []string{"Greets a person by name."}, greet.DocComments)
		assert.Equal(t, []string{"build the message"}, greet.InlineComments)
		assert.True(t, greet.Visibility.IsPublic())
		assert.Equal(t, 4, greet.Location.StartLine)
		assert.Equal(t, 7, greet.Location.EndLine)

		helper := findElement(t, elements, model.TypeFunction, "internal_helper")
		assert.Equal(t, model.VisibilityPrivate, helper.Visibility.Kind)
		assert.Nil(t, helper.Hierarchy.ParentID)
	})

	t.Run("Struct And Attributes", func(t *testing.T) {
		point := findElement(t, elements, model.TypeStruct, "Point")
		assert.Equal(t, []string{"A point in 2D space."}, point.DocComments)
		require.Len(t, point.Attributes, 1)
		assert.Equal(t, "#[derive(Debug, Clone)]", point.Attributes[0])
	})

	t.Run("Impl Scope", func(t *testing.T) {
		impl := findElement(t, elements, model.TypeImpl, "Point")
		origin := findElement(t, elements, model.TypeFunction, "origin")
		magnitude := findElement(t, elements, model.TypeFunction, "magnitude")

		require.NotNil(t, origin.Hierarchy.ParentID)
		assert.Equal(t, impl.ID, *origin.Hierarchy.ParentID)
		assert.Equal(t, []string{origin.ID, magnitude.ID}, impl.Hierarchy.ChildrenIDs)
		assert.Equal(t, "Point::origin", origin.Hierarchy.QualifiedName)
		assert.Equal(t, "", origin.Hierarchy.ModulePath, "impl blocks never extend the module path")
		assert.Equal(t, 1, origin.Hierarchy.NestingLevel)
	})

	t.Run("Trait Members Inherit Visibility", func(t *testing.T) {
		area := findElement(t, elements, model.TypeFunction, "area")
		describe := findElement(t, elements, model.TypeFunction, "describe")
		assert.True(t, area.Visibility.IsPublic())
		assert.True(t, describe.Visibility.IsPublic())
		assert.Equal(t, "Shape::describe", describe.Hierarchy.QualifiedName)
	})

	t.Run("Nested Modules", func(t *testing.T) {
		geometry := findElement(t, elements, model.TypeModule, "geometry")
		toRadians := findElement(t, elements, model.TypeFunction, "to_radians")
		rightAngle := findElement(t, elements, model.TypeFunction, "right_angle")

		assert.Equal(t, "", geometry.Hierarchy.ModulePath)
		assert.Equal(t, "geometry", toRadians.Hierarchy.ModulePath)
		assert.Equal(t, "geometry::to_radians", toRadians.Hierarchy.QualifiedName)
		assert.Equal(t, "geometry::angles", rightAngle.Hierarchy.ModulePath)
		assert.Equal(t, "geometry::angles::right_angle", rightAngle.Hierarchy.QualifiedName)
		assert.Equal(t, 2, rightAngle.Hierarchy.NestingLevel)
	})

	t.Run("Remaining Kinds", func(t *testing.T) {
		findElement(t, elements, model.TypeEnum, "Direction")
		findElement(t, elements, model.TypeConstant, "MAX_POINTS")
		findElement(t, elements, model.TypeStatic, "APP_NAME")
		findElement(t, elements, model.TypeTypeAlias, "Coord")
		findElement(t, elements, model.TypeUnion, "Raw")

		trace := findElement(t, elements, model.TypeMacro, "trace")
		assert.Equal(t, model.VisibilityPrivate, trace.Visibility.Kind)
	})

	t.Run("Recorded Usages", func(t *testing.T) {
		run := findElement(t, elements, model.TypeFunction, "run")
		impl := findElement(t, elements, model.TypeImpl, "Point")
		origin := findElement(t, elements, model.TypeFunction, "origin")

		type key struct {
			t    model.ReferenceType
			text string
			from string
		}
		counts := make(map[key]int)
		for _, u := range usages {
			counts[key{u.ReferenceType, u.Text, u.FromElementID}]++
		}

		assert.Equal(t, 1, counts[key{model.RefFunctionCall, "greet", run.ID}])
		assert.Equal(t, 1, counts[key{model.RefFunctionCall, "internal_helper", run.ID}])
		assert.Equal(t, 1, counts[key{model.RefTypeUsage, "Point", impl.ID}])
		assert.Equal(t, 2, counts[key{model.RefTypeUsage, "Point", origin.ID}],
			"return type and struct literal")

		greet := findElement(t, elements, model.TypeFunction, "greet")
		assert.Equal(t, 1, counts[key{model.RefMacroInvocation, "format", greet.ID}])

		assert.Equal(t, []string{"greet", "internal_helper"}, run.Dependencies)
		assert.Equal(t, []string{"Point"}, origin.Dependencies, "dependency names are deduplicated")
	})
}

func TestVisitor_VisibilityFiltering(t *testing.T) {
	source := `
pub fn a() {}
pub fn b() {}
fn c() {}
fn d() {}
`
	all, _ := visitSource(t, source, Options{IncludeDocs: true, IncludePrivate: true})
	assert.Len(t, all, 4)

	public, _ := visitSource(t, source, Options{IncludeDocs: true, IncludePrivate: false})
	require.Len(t, public, 2)
	assert.Equal(t, "a", public[0].Name)
	assert.Equal(t, "b", public[1].Name)
	for _, e := range public {
		assert.True(t, e.Visibility.IsPublic())
	}
}

func TestVisitor_PrivateModuleDropsSubtree(t *testing.T) {
	source := `
mod hidden {
    pub fn inside() {}
}
pub fn outside() {}
`
	elements, _ := visitSource(t, source, Options{IncludePrivate: false})
	require.Len(t, elements, 1)
	assert.Equal(t, "outside", elements[0].Name)
}

func TestVisitor_ElementTypeFilter(t *testing.T) {
	source, err := os.ReadFile(filepath.Join("testdata", "sample.rs"))
	require.NoError(t, err)

	elements, _ := visitSource(t, string(source), Options{
		IncludePrivate: true,
		ElementFilter:  []model.ElementType{model.TypeFunction},
	})

	// containers are filtered out together with their sub-trees, so only
	// file-root functions survive
	require.Len(t, elements, 3)
	names := []string{elements[0].Name, elements[1].Name, elements[2].Name}
	assert.Equal(t, []string{"greet", "internal_helper", "run"}, names)
}

func TestVisitor_FilteredOutputIsSubset(t *testing.T) {
	source, err := os.ReadFile(filepath.Join("testdata", "sample.rs"))
	require.NoError(t, err)

	all, _ := visitSource(t, string(source), DefaultOptions())
	public, _ := visitSource(t, string(source), Options{IncludeDocs: true, IncludePrivate: false})

	allPublic := make(map[string]bool)
	for _, e := range all {
		if e.Visibility.IsPublic() {
			allPublic[e.Hierarchy.QualifiedName] = true
		}
	}
	for _, e := range public {
		assert.True(t, allPublic[e.Hierarchy.QualifiedName],
			"%s must also appear in the unfiltered run", e.Hierarchy.QualifiedName)
	}
}

func TestVisitor_IncludeDocsOff(t *testing.T) {
	source := `
/// Documented.
#[inline]
pub fn documented() {
    // inner note
}
`
	elements, _ := visitSource(t, source, Options{IncludeDocs: false, IncludePrivate: true})
	require.Len(t, elements, 1)
	assert.Empty(t, elements[0].DocComments)
	assert.Empty(t, elements[0].InlineComments)
	assert.Equal(t, []string{"#[inline]"}, elements[0].Attributes, "attributes are kept either way")
}

func TestVisitor_DuplicateNamesGetDistinctIds(t *testing.T) {
	source := `
mod a {
    pub fn helper() {}
}
mod b {
    pub fn helper() {}
}
`
	elements, _ := visitSource(t, source, DefaultOptions())
	require.Len(t, elements, 4)

	ids := make(map[string]bool)
	for _, e := range elements {
		assert.False(t, ids[e.ID], "duplicate id %s", e.ID)
		ids[e.ID] = true
	}
	assert.True(t, ids["function_helper_1"])
	assert.True(t, ids["function_helper_2"])
}

func TestVisitor_NestedFunction(t *testing.T) {
	source := `
pub fn outer() {
    fn inner() {}
    inner();
}
`
	elements, usages := visitSource(t, source, DefaultOptions())
	require.Len(t, elements, 2)

	outer := findElement(t, elements, model.TypeFunction, "outer")
	inner := findElement(t, elements, model.TypeFunction, "inner")
	require.NotNil(t, inner.Hierarchy.ParentID)
	assert.Equal(t, outer.ID, *inner.Hierarchy.ParentID)
	assert.Equal(t, "outer::inner", inner.Hierarchy.QualifiedName)

	require.Len(t, usages, 1)
	assert.Equal(t, model.RefFunctionCall, usages[0].ReferenceType)
	assert.Equal(t, "inner", usages[0].Text)
	assert.Equal(t, outer.ID, usages[0].FromElementID)
}

func TestVisitor_UseDeclarationsAreNotUsages(t *testing.T) {
	source := `
use std::collections::HashMap;

pub fn fresh() -> i32 { 0 }
`
	_, usages := visitSource(t, source, DefaultOptions())
	assert.Empty(t, usages)
}
