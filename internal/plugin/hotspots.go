package plugin

import (
	"fmt"
	"sort"

	"rustex/internal/model"
)

// MetaComplexityLevel is the metadata key hotspot tagging writes.
const MetaComplexityLevel = "complexity_level"

// Hotspots tags every element at complexity level high or above and
// reports the worst N scored elements.
type Hotspots struct {
	worst int
}

func NewHotspots(worst int) *Hotspots {
	if worst <= 0 {
		worst = 5
	}
	return &Hotspots{worst: worst}
}

func (h *Hotspots) Name() string { return "hotspots" }
func (h *Hotspots) Phase() Phase { return PhaseEnrich }

func (h *Hotspots) Run(ctx *Context) error {
	var ranked []*model.CodeElement
	for _, e := range ctx.Project.Elements {
		if e.Complexity == nil {
			continue
		}
		level := model.LevelForScore(*e.Complexity)
		if level == model.LevelHigh || level == model.LevelVeryHigh {
			e.SetMeta(MetaComplexityLevel, string(level))
		}
		if level != model.LevelLow {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].Complexity == *ranked[j].Complexity {
			return ranked[i].ID < ranked[j].ID
		}
		return *ranked[i].Complexity > *ranked[j].Complexity
	})
	if len(ranked) > h.worst {
		ranked = ranked[:h.worst]
	}
	for _, e := range ranked {
		ctx.AddFinding("complexity_hotspot", e.ID, fmt.Sprintf("%s scores %d (%s)",
			e.Hierarchy.QualifiedName, *e.Complexity, model.LevelForScore(*e.Complexity)))
	}
	return nil
}
