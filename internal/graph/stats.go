package graph

import "rustex/internal/model"

// ProjectStats are the roll-up metrics renderers and reports print.
type ProjectStats struct {
	TotalFiles         int                       `json:"total_files"`
	TotalLines         int                       `json:"total_lines"`
	TotalElements      int                       `json:"total_elements"`
	TotalReferences    int                       `json:"total_references"`
	ResolvedReferences int                       `json:"resolved_references"`
	ResolutionRate     float64                   `json:"resolution_rate"`
	CountsByType       map[model.ElementType]int `json:"counts_by_type"`
	AvgComplexity      float64                   `json:"avg_complexity"`
	MaxComplexity      int                       `json:"max_complexity"`
	MostComplexID      string                    `json:"most_complex_id,omitempty"`
	DocumentedElements int                       `json:"documented_elements"`
}

// Stats computes the project roll-up in one pass over the collections.
func (p *Project) Stats() ProjectStats {
	s := ProjectStats{
		TotalFiles:      len(p.Files),
		TotalElements:   len(p.Elements),
		TotalReferences: len(p.References),
		CountsByType:    make(map[model.ElementType]int),
	}
	for _, f := range p.Files {
		s.TotalLines += f.Lines
	}

	var complexitySum int
	for _, e := range p.Elements {
		s.CountsByType[e.ElementType]++
		if len(e.DocComments) > 0 {
			s.DocumentedElements++
		}
		if e.Complexity == nil {
			continue
		}
		complexitySum += *e.Complexity
		if *e.Complexity > s.MaxComplexity {
			s.MaxComplexity = *e.Complexity
			s.MostComplexID = e.ID
		}
	}
	if len(p.Elements) > 0 {
		s.AvgComplexity = float64(complexitySum) / float64(len(p.Elements))
	}

	for _, ref := range p.References {
		if ref.IsResolved {
			s.ResolvedReferences++
		}
	}
	if s.TotalReferences > 0 {
		s.ResolutionRate = float64(s.ResolvedReferences) / float64(s.TotalReferences)
	}
	return s
}
