package model

import "fmt"

// ElementType classifies a declared construct.
type ElementType string

const (
	TypeFunction  ElementType = "function"
	TypeStruct    ElementType = "struct"
	TypeEnum      ElementType = "enum"
	TypeTrait     ElementType = "trait"
	TypeImpl      ElementType = "impl"
	TypeModule    ElementType = "module"
	TypeConstant  ElementType = "constant"
	TypeStatic    ElementType = "static"
	TypeTypeAlias ElementType = "type_alias"
	TypeMacro     ElementType = "macro"
	TypeUnion     ElementType = "union"
)

// AllElementTypes lists every type in a fixed order, used by filters and stats.
var AllElementTypes = []ElementType{
	TypeFunction, TypeStruct, TypeEnum, TypeTrait, TypeImpl, TypeModule,
	TypeConstant, TypeStatic, TypeTypeAlias, TypeMacro, TypeUnion,
}

// ParseElementType maps a string form back to an ElementType.
func ParseElementType(s string) (ElementType, error) {
	for _, t := range AllElementTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown element type %q", s)
}

type VisibilityKind string

const (
	VisibilityPublic     VisibilityKind = "public"
	VisibilityRestricted VisibilityKind = "restricted"
	VisibilityPrivate    VisibilityKind = "private"
)

// Visibility carries the declared visibility of an element. Scope is set
// only for the restricted kind and holds the literal restriction token,
// e.g. "crate" for pub(crate) or "super" for pub(super).
type Visibility struct {
	Kind  VisibilityKind `json:"kind"`
	Scope string         `json:"scope,omitempty"`
}

func Public() Visibility  { return Visibility{Kind: VisibilityPublic} }
func Private() Visibility { return Visibility{Kind: VisibilityPrivate} }

func Restricted(scope string) Visibility {
	return Visibility{Kind: VisibilityRestricted, Scope: scope}
}

// IsPublic reports whether the element is visible outside its crate.
func (v Visibility) IsPublic() bool { return v.Kind == VisibilityPublic }

func (v Visibility) String() string {
	if v.Kind == VisibilityRestricted {
		return fmt.Sprintf("pub(%s)", v.Scope)
	}
	return string(v.Kind)
}

// Location is an inclusive source span. Lines and columns are 1-based.
type Location struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// ElementHierarchy places an element in the containment tree of its file.
// ParentID is a weak back-reference; ChildrenIDs is kept in sync with it
// by the visitor the moment a child is created.
type ElementHierarchy struct {
	ParentID      *string  `json:"parent_id,omitempty"`
	ChildrenIDs   []string `json:"children_ids,omitempty"`
	NestingLevel  int      `json:"nesting_level"`
	QualifiedName string   `json:"qualified_name"`
	ModulePath    string   `json:"module_path"`
}

// CodeElement is one declared construct extracted from a source file.
// Elements are immutable once emitted; only plugins may add Metadata keys.
type CodeElement struct {
	ID             string             `json:"id"`
	ElementType    ElementType        `json:"element_type"`
	Name           string             `json:"name"`
	Signature      string             `json:"signature,omitempty"`
	Visibility     Visibility         `json:"visibility"`
	DocComments    []string           `json:"doc_comments,omitempty"`
	InlineComments []string           `json:"inline_comments,omitempty"`
	Attributes     []string           `json:"attributes,omitempty"`
	GenericParams  []string           `json:"generic_params,omitempty"`
	Location       Location           `json:"location"`
	Complexity     *int               `json:"complexity,omitempty"`
	Metrics        *ComplexityMetrics `json:"complexity_metrics,omitempty"`
	Dependencies   []string           `json:"dependencies,omitempty"`
	Hierarchy      ElementHierarchy   `json:"hierarchy"`
	Metadata       map[string]string  `json:"metadata,omitempty"`
	Hash           string             `json:"hash,omitempty"`
}

// Validate checks the element invariants that hold for every emitted element.
func (e *CodeElement) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("element has empty id")
	}
	if e.Name == "" {
		return fmt.Errorf("element %s has empty name", e.ID)
	}
	if e.Location.EndLine < e.Location.StartLine {
		return fmt.Errorf("element %s spans %d..%d", e.ID, e.Location.StartLine, e.Location.EndLine)
	}
	return nil
}

// DocSummary returns the first doc-comment line, used by renderers.
func (e *CodeElement) DocSummary() string {
	if len(e.DocComments) == 0 {
		return ""
	}
	return e.DocComments[0]
}

// SetMeta annotates the element. The metadata map is the only part of an
// element that may change after extraction.
func (e *CodeElement) SetMeta(key, value string) {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
}
