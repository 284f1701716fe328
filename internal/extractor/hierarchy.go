package extractor

import (
	"fmt"
	"strings"

	"rustex/internal/model"
)

// HierarchyBuilder tracks the lexical position of the visitor's walk through
// one file: a scope stack for every container element (modules, impls,
// traits, function bodies) and a separate module stack for mod items only.
// One instance per file; ids it allocates are unique within that file and
// the orchestrator renumbers collisions across files after the merge.
type HierarchyBuilder struct {
	idCounters  map[string]int
	scopeStack  []scopeEntry
	moduleStack []string
}

type scopeEntry struct {
	id   string
	name string
}

func NewHierarchyBuilder() *HierarchyBuilder {
	return &HierarchyBuilder{idCounters: make(map[string]int)}
}

// GenerateID allocates "{type}_{name}_{n}" where n counts prior allocations
// for the same (type, name) pair, starting at 1. Two elements sharing a
// type and name therefore never share an id.
func (h *HierarchyBuilder) GenerateID(t model.ElementType, name string) string {
	key := string(t) + "\x00" + name
	h.idCounters[key]++
	return fmt.Sprintf("%s_%s_%d", t, name, h.idCounters[key])
}

// EnterScope pushes a container element. Callers must pair every call with
// ExitScope around the element's sub-tree walk.
func (h *HierarchyBuilder) EnterScope(id, name string) {
	h.scopeStack = append(h.scopeStack, scopeEntry{id: id, name: name})
}

func (h *HierarchyBuilder) ExitScope() {
	if len(h.scopeStack) > 0 {
		h.scopeStack = h.scopeStack[:len(h.scopeStack)-1]
	}
}

// EnterModule pushes a mod item's name onto the module path. Only mod items
// touch this stack; an impl block is a scope but never a module.
func (h *HierarchyBuilder) EnterModule(name string) {
	h.moduleStack = append(h.moduleStack, name)
}

func (h *HierarchyBuilder) ExitModule() {
	if len(h.moduleStack) > 0 {
		h.moduleStack = h.moduleStack[:len(h.moduleStack)-1]
	}
}

// CurrentScope returns the qualified name of the innermost open scope,
// empty at file root. This is the scope recorded on raw usages.
func (h *HierarchyBuilder) CurrentScope() string {
	names := make([]string, len(h.scopeStack))
	for i, s := range h.scopeStack {
		names[i] = s.name
	}
	return strings.Join(names, "::")
}

// BuildHierarchy computes the placement of a new element named name from
// the current stack state without mutating it. The innermost open scope
// becomes the parent; nesting level is the scope depth; the qualified name
// joins every open scope name plus the element's own, while the module
// path joins only mod segments.
func (h *HierarchyBuilder) BuildHierarchy(name string) model.ElementHierarchy {
	hier := model.ElementHierarchy{
		NestingLevel: len(h.scopeStack),
		ModulePath:   strings.Join(h.moduleStack, "::"),
	}
	if n := len(h.scopeStack); n > 0 {
		parent := h.scopeStack[n-1].id
		hier.ParentID = &parent
	}
	if scope := h.CurrentScope(); scope != "" {
		hier.QualifiedName = scope + "::" + name
	} else {
		hier.QualifiedName = name
	}
	return hier
}

// Depth reports the current scope stack depth. The visitor uses it to
// verify paired enter/exit bookkeeping in tests.
func (h *HierarchyBuilder) Depth() int { return len(h.scopeStack) }
