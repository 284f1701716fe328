package graph

import (
	"encoding/json"
	"fmt"
	"sort"

	"rustex/internal/model"
)

// FileRecord tracks one analyzed source file.
type FileRecord struct {
	Path         string `json:"path"`
	Hash         string `json:"hash"`
	Lines        int    `json:"lines"`
	ElementCount int    `json:"element_count"`
}

// Project is the aggregated model of one analysis run: every element and
// cross-reference of every analyzed file, plus lookup indices. Renderers,
// plugins and storage all consume this type.
type Project struct {
	Name       string                 `json:"name"`
	Root       string                 `json:"root"`
	Edition    string                 `json:"edition,omitempty"`
	Files      []FileRecord           `json:"files"`
	Elements   []*model.CodeElement   `json:"elements"`
	References []model.CrossReference `json:"references"`

	byID   map[string]*model.CodeElement
	byName map[string][]*model.CodeElement
	byFile map[string][]*model.CodeElement
}

func NewProject(name, root string) *Project {
	p := &Project{Name: name, Root: root}
	p.resetIndex()
	return p
}

func (p *Project) resetIndex() {
	p.byID = make(map[string]*model.CodeElement)
	p.byName = make(map[string][]*model.CodeElement)
	p.byFile = make(map[string][]*model.CodeElement)
}

// AddFileResult merges one file's extraction output into the project.
func (p *Project) AddFileResult(rec FileRecord, elements []*model.CodeElement, refs []model.CrossReference) {
	rec.ElementCount = len(elements)
	p.Files = append(p.Files, rec)
	p.Elements = append(p.Elements, elements...)
	p.References = append(p.References, refs...)
	for _, e := range elements {
		p.index(e)
	}
}

func (p *Project) index(e *model.CodeElement) {
	p.byID[e.ID] = e
	p.byName[e.Name] = append(p.byName[e.Name], e)
	p.byFile[e.Location.File] = append(p.byFile[e.Location.File], e)
}

// Reindex rebuilds the lookup maps from the exported collections. Needed
// after deserialization or any bulk rewrite of element ids.
func (p *Project) Reindex() {
	p.resetIndex()
	for _, e := range p.Elements {
		p.index(e)
	}
}

// Element looks an element up by id.
func (p *Project) Element(id string) (*model.CodeElement, bool) {
	e, ok := p.byID[id]
	return e, ok
}

// ElementsByName returns every element sharing a short name.
func (p *Project) ElementsByName(name string) []*model.CodeElement {
	return p.byName[name]
}

// ElementsInFile returns the elements of one file in traversal order.
func (p *Project) ElementsInFile(path string) []*model.CodeElement {
	return p.byFile[path]
}

// Dependents returns the elements whose resolved references point at id.
func (p *Project) Dependents(id string) []*model.CodeElement {
	var out []*model.CodeElement
	seen := make(map[string]bool)
	for _, ref := range p.References {
		if !ref.IsResolved || *ref.ToElementID != id || seen[ref.FromElementID] {
			continue
		}
		if e, ok := p.byID[ref.FromElementID]; ok {
			seen[ref.FromElementID] = true
			out = append(out, e)
		}
	}
	return out
}

// DependenciesOf returns the elements a given element references.
func (p *Project) DependenciesOf(id string) []*model.CodeElement {
	var out []*model.CodeElement
	seen := make(map[string]bool)
	for _, ref := range p.References {
		if ref.FromElementID != id || !ref.IsResolved || seen[*ref.ToElementID] {
			continue
		}
		if e, ok := p.byID[*ref.ToElementID]; ok {
			seen[*ref.ToElementID] = true
			out = append(out, e)
		}
	}
	return out
}

// UnresolvedReferences returns the references that never matched a
// declaration, for reporting.
func (p *Project) UnresolvedReferences() []model.CrossReference {
	var out []model.CrossReference
	for _, ref := range p.References {
		if !ref.IsResolved {
			out = append(out, ref)
		}
	}
	return out
}

// ModuleGroup collects the elements sharing one module path.
type ModuleGroup struct {
	Path     string
	Elements []*model.CodeElement
}

// Modules groups elements by module path, sorted by path with the crate
// root first.
func (p *Project) Modules() []ModuleGroup {
	grouped := make(map[string][]*model.CodeElement)
	for _, e := range p.Elements {
		grouped[e.Hierarchy.ModulePath] = append(grouped[e.Hierarchy.ModulePath], e)
	}
	paths := make([]string, 0, len(grouped))
	for path := range grouped {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := make([]ModuleGroup, 0, len(paths))
	for _, path := range paths {
		out = append(out, ModuleGroup{Path: path, Elements: grouped[path]})
	}
	return out
}

// Marshal serializes the project with stable ordering.
func (p *Project) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Load deserializes a project and rebuilds its indices.
func Load(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	p.Reindex()
	return &p, nil
}
