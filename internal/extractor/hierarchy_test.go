package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rustex/internal/model"
)

func TestGenerateID(t *testing.T) {
	h := NewHierarchyBuilder()

	assert.Equal(t, "function_run_1", h.GenerateID(model.TypeFunction, "run"))
	assert.Equal(t, "function_run_2", h.GenerateID(model.TypeFunction, "run"))
	assert.Equal(t, "struct_run_1", h.GenerateID(model.TypeStruct, "run"))
	assert.Equal(t, "function_stop_1", h.GenerateID(model.TypeFunction, "stop"))
}

func TestBuildHierarchyRoot(t *testing.T) {
	h := NewHierarchyBuilder()

	hier := h.BuildHierarchy("main")
	assert.Nil(t, hier.ParentID)
	assert.Equal(t, 0, hier.NestingLevel)
	assert.Equal(t, "main", hier.QualifiedName)
	assert.Equal(t, "", hier.ModulePath)
}

func TestBuildHierarchyNested(t *testing.T) {
	h := NewHierarchyBuilder()

	modID := h.GenerateID(model.TypeModule, "utils")
	h.EnterScope(modID, "utils")
	h.EnterModule("utils")

	hier := h.BuildHierarchy("helper")
	require.NotNil(t, hier.ParentID)
	assert.Equal(t, modID, *hier.ParentID)
	assert.Equal(t, 1, hier.NestingLevel)
	assert.Equal(t, "utils::helper", hier.QualifiedName)
	assert.Equal(t, "utils", hier.ModulePath)

	h.ExitModule()
	h.ExitScope()
	assert.Equal(t, 0, h.Depth())
}

func TestImplScopeIsNotModule(t *testing.T) {
	h := NewHierarchyBuilder()

	h.EnterScope(h.GenerateID(model.TypeModule, "api"), "api")
	h.EnterModule("api")
	h.EnterScope(h.GenerateID(model.TypeImpl, "Server"), "Server")

	hier := h.BuildHierarchy("start")
	assert.Equal(t, "api::Server::start", hier.QualifiedName)
	assert.Equal(t, "api", hier.ModulePath, "impl must not extend the module path")
	assert.Equal(t, 2, hier.NestingLevel)
}

func TestExitOnEmptyStacksIsSafe(t *testing.T) {
	h := NewHierarchyBuilder()
	h.ExitScope()
	h.ExitModule()
	assert.Equal(t, 0, h.Depth())
	assert.Equal(t, "", h.CurrentScope())
}
