package plugin

import (
	"fmt"

	"rustex/internal/graph"
	"rustex/internal/model"
)

// deadCodeKinds are the element kinds a resolved reference can target.
var deadCodeKinds = map[model.ElementType]bool{
	model.TypeFunction:  true,
	model.TypeStruct:    true,
	model.TypeEnum:      true,
	model.TypeTrait:     true,
	model.TypeConstant:  true,
	model.TypeStatic:    true,
	model.TypeTypeAlias: true,
	model.TypeMacro:     true,
	model.TypeUnion:     true,
}

// DeadCode reports private elements nothing resolved a reference to.
// Public elements are part of the crate API and stay out, as does main.
// Methods are skipped too: receiver calls leave no path usage behind, so
// an unreferenced method proves nothing.
type DeadCode struct{}

func NewDeadCode() *DeadCode { return &DeadCode{} }

func (d *DeadCode) Name() string { return "deadcode" }
func (d *DeadCode) Phase() Phase { return PhaseReport }

func (d *DeadCode) Run(ctx *Context) error {
	p := ctx.Project
	incoming := make(map[string]int)
	for _, ref := range p.References {
		if ref.IsResolved && ref.ToElementID != nil {
			incoming[*ref.ToElementID]++
		}
	}
	for _, e := range p.Elements {
		if !deadCodeKinds[e.ElementType] || e.Visibility.IsPublic() {
			continue
		}
		if e.ElementType == model.TypeFunction && e.Name == "main" {
			continue
		}
		if insideImplOrTrait(p, e) {
			continue
		}
		if incoming[e.ID] == 0 {
			ctx.AddFinding("dead_code", e.ID, fmt.Sprintf("%s %s has no incoming references",
				e.ElementType, e.Hierarchy.QualifiedName))
		}
	}
	return nil
}

func insideImplOrTrait(p *graph.Project, e *model.CodeElement) bool {
	if e.Hierarchy.ParentID == nil {
		return false
	}
	parent, ok := p.Element(*e.Hierarchy.ParentID)
	if !ok {
		return false
	}
	return parent.ElementType == model.TypeImpl || parent.ElementType == model.TypeTrait
}
