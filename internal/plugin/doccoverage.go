package plugin

import "fmt"

// DocCoverage reports the documented share of each module.
type DocCoverage struct{}

func NewDocCoverage() *DocCoverage { return &DocCoverage{} }

func (d *DocCoverage) Name() string { return "doccoverage" }
func (d *DocCoverage) Phase() Phase { return PhaseReport }

func (d *DocCoverage) Run(ctx *Context) error {
	for _, group := range ctx.Project.Modules() {
		documented := 0
		for _, e := range group.Elements {
			if len(e.DocComments) > 0 {
				documented++
			}
		}
		label := group.Path
		if label == "" {
			label = "crate root"
		}
		ratio := float64(documented) / float64(len(group.Elements))
		ctx.AddFinding("doc_coverage", "", fmt.Sprintf("%s: %d/%d elements documented (%.0f%%)",
			label, documented, len(group.Elements), ratio*100))
	}
	return nil
}
