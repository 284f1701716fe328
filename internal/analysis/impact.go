package analysis

import (
	"rustex/internal/git"
	"rustex/internal/graph"
	"rustex/internal/model"
)

// ImpactReport lists the elements a change set touches and the elements
// depending on them.
type ImpactReport struct {
	Direct   []*model.CodeElement `json:"direct"`
	Indirect []*model.CodeElement `json:"indirect"`
}

// Empty reports whether the change set touched no known element.
func (r *ImpactReport) Empty() bool {
	return len(r.Direct) == 0 && len(r.Indirect) == 0
}

// Analyzer maps changed lines onto a stored project model. It never
// re-parses sources; the loaded model is the single source of truth.
type Analyzer struct {
	project *graph.Project
}

func NewAnalyzer(p *graph.Project) *Analyzer {
	return &Analyzer{project: p}
}

// Analyze marks every element whose span covers a changed line as directly
// affected, then walks resolved references one level out: anything that
// depends on a directly affected element is indirectly affected.
func (a *Analyzer) Analyze(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{}

	direct := make(map[string]bool)
	for _, change := range changes {
		for _, e := range a.project.ElementsInFile(change.Path) {
			if direct[e.ID] || !overlaps(e, change.ChangedLines) {
				continue
			}
			direct[e.ID] = true
			report.Direct = append(report.Direct, e)
		}
	}

	indirect := make(map[string]bool)
	for _, e := range report.Direct {
		for _, dep := range a.project.Dependents(e.ID) {
			if direct[dep.ID] || indirect[dep.ID] {
				continue
			}
			indirect[dep.ID] = true
			report.Indirect = append(report.Indirect, dep)
		}
	}
	return report
}

func overlaps(e *model.CodeElement, lines []int) bool {
	for _, line := range lines {
		if line >= e.Location.StartLine && line <= e.Location.EndLine {
			return true
		}
	}
	return false
}
