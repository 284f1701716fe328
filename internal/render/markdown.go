package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rustex/internal/graph"
	"rustex/internal/knowledge"
	"rustex/internal/model"
)

const hotspotLimit = 10

// MarkdownGenerator produces the human-readable analysis document.
type MarkdownGenerator struct {
	project    *graph.Project
	engine     *knowledge.Engine
	summarizer knowledge.Summarizer
	mermaid    *MermaidGenerator
}

// NewMarkdownGenerator creates a generator for one analyzed project. The
// summarizer is optional; without it the document is fully deterministic.
func NewMarkdownGenerator(p *graph.Project, s knowledge.Summarizer) *MarkdownGenerator {
	return &MarkdownGenerator{
		project:    p,
		engine:     knowledge.NewEngine(p, nil, nil),
		summarizer: s,
		mermaid:    &MermaidGenerator{},
	}
}

// Generate writes ANALYSIS.md into outputDir, with stage metrics next to
// it in report.json.
func (g *MarkdownGenerator) Generate(ctx context.Context, outputDir string) (retErr error) {
	report := NewPipelineReport("generate", outputDir)
	reportPath := filepath.Join(outputDir, "report.json")
	defer func() {
		if retErr != nil {
			report.AddSignal("generate_failed", "generator", "critical", "Markdown generation failed.", 1)
		}
		if err := report.Save(reportPath); err != nil {
			fmt.Printf("⚠️  Failed to write pipeline report: %v\n", err)
		}
	}()

	stage := report.BeginStage("init_output_dir")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		report.EndStage(stage, "error", nil, err)
		return err
	}
	report.EndStage(stage, "ok", nil, nil)

	stage = report.BeginStage("render_markdown")
	doc := g.RenderProject()
	report.EndStage(stage, "ok", map[string]float64{
		"rendered_bytes": float64(len(doc)),
	}, nil)

	if g.summarizer != nil {
		stage = report.BeginStage("ai_notes")
		notes, err := g.buildAINotes(ctx)
		if err != nil {
			report.EndStage(stage, "error", nil, err)
			report.AddSignal("ai_notes_failed", "ai_notes", "warning", "Summarizer failed; document written without AI notes.", 0)
		} else {
			doc += notes
			report.EndStage(stage, "ok", nil, nil)
		}
	}

	stage = report.BeginStage("write_output")
	path := filepath.Join(outputDir, "ANALYSIS.md")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		report.EndStage(stage, "error", nil, err)
		return err
	}
	report.EndStage(stage, "ok", nil, nil)
	report.AddSignal("generate_complete", "generator", "info", "Markdown generation completed successfully.", 1)
	return nil
}

// RenderProject builds the full document as a string. Deterministic for a
// given project, which is what the golden assertions in tests rely on.
func (g *MarkdownGenerator) RenderProject() string {
	p := g.project
	stats := p.Stats()

	var sb strings.Builder
	title := p.Name
	if title == "" {
		title = "Project"
	}
	fmt.Fprintf(&sb, "# %s Code Analysis\n\n", title)
	if p.Edition != "" {
		fmt.Fprintf(&sb, "Rust edition %s.\n\n", p.Edition)
	}

	g.writeStatistics(&sb, stats)

	if diagram := g.mermaid.GenerateModuleHierarchy(p); diagram != "" {
		sb.WriteString("## Module Hierarchy\n\n")
		sb.WriteString(diagram)
		sb.WriteString("\n")
	}

	g.writeModules(&sb)
	g.writeHotspots(&sb)

	if diagram := g.mermaid.GenerateDependencyFlow(p, 30); diagram != "" {
		sb.WriteString("## Dependency Flow\n\n")
		sb.WriteString(diagram)
		sb.WriteString("\n")
	}

	g.writeUnresolved(&sb)
	return sb.String()
}

func (g *MarkdownGenerator) writeStatistics(sb *strings.Builder, stats graph.ProjectStats) {
	sb.WriteString("## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("| :--- | :--- |\n")
	fmt.Fprintf(sb, "| Files analyzed | %d |\n", stats.TotalFiles)
	fmt.Fprintf(sb, "| Lines of code | %d |\n", stats.TotalLines)
	fmt.Fprintf(sb, "| Elements extracted | %d |\n", stats.TotalElements)
	for _, t := range model.AllElementTypes {
		if n := stats.CountsByType[t]; n > 0 {
			fmt.Fprintf(sb, "| %s count | %d |\n", t, n)
		}
	}
	fmt.Fprintf(sb, "| References | %d |\n", stats.TotalReferences)
	fmt.Fprintf(sb, "| Resolved references | %d (%.0f%%) |\n", stats.ResolvedReferences, stats.ResolutionRate*100)
	fmt.Fprintf(sb, "| Documented elements | %d |\n", stats.DocumentedElements)
	fmt.Fprintf(sb, "| Average complexity | %.1f |\n", stats.AvgComplexity)
	if stats.MostComplexID != "" {
		fmt.Fprintf(sb, "| Highest complexity | %d (`%s`) |\n", stats.MaxComplexity, stats.MostComplexID)
	}
	sb.WriteString("\n")
}

func (g *MarkdownGenerator) writeModules(sb *strings.Builder) {
	groups := g.project.Modules()
	if len(groups) == 0 {
		return
	}
	sb.WriteString("## Elements by Module\n\n")
	for _, group := range groups {
		if group.Path == "" {
			sb.WriteString("### crate root\n\n")
		} else {
			fmt.Fprintf(sb, "### `%s`\n\n", group.Path)
		}
		for _, e := range group.Elements {
			fmt.Fprintf(sb, "- `%s` (%s, %s)", e.Name, e.ElementType, e.Visibility)
			if e.Complexity != nil {
				fmt.Fprintf(sb, ", complexity %d (%s)", *e.Complexity, model.LevelForScore(*e.Complexity))
			}
			if doc := e.DocSummary(); doc != "" {
				fmt.Fprintf(sb, ": %s", doc)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
}

// Hotspots ranks elements by overall complexity score.
func (g *MarkdownGenerator) Hotspots(limit int) []*model.CodeElement {
	var scored []*model.CodeElement
	for _, e := range g.project.Elements {
		if e.Complexity != nil {
			scored = append(scored, e)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if *scored[i].Complexity == *scored[j].Complexity {
			return scored[i].ID < scored[j].ID
		}
		return *scored[i].Complexity > *scored[j].Complexity
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func (g *MarkdownGenerator) writeHotspots(sb *strings.Builder) {
	hotspots := g.Hotspots(hotspotLimit)
	if len(hotspots) == 0 {
		return
	}
	sb.WriteString("## Complexity Hotspots\n\n")
	sb.WriteString("| Element | File | Score | Level | Cyclomatic | Cognitive |\n")
	sb.WriteString("| :--- | :--- | ---: | :--- | ---: | ---: |\n")
	for _, e := range hotspots {
		cyclomatic, cognitive := "-", "-"
		if e.Metrics != nil {
			cyclomatic = fmt.Sprintf("%d", e.Metrics.Cyclomatic)
			cognitive = fmt.Sprintf("%d", e.Metrics.Cognitive)
		}
		fmt.Fprintf(sb, "| `%s` | %s:%d | %d | %s | %s | %s |\n",
			e.Hierarchy.QualifiedName, e.Location.File, e.Location.StartLine,
			*e.Complexity, model.LevelForScore(*e.Complexity), cyclomatic, cognitive)
	}
	sb.WriteString("\n")
}

func (g *MarkdownGenerator) writeUnresolved(sb *strings.Builder) {
	unresolved := g.project.UnresolvedReferences()
	if len(unresolved) == 0 {
		return
	}
	sb.WriteString("## Unresolved References\n\n")
	sb.WriteString("| Name | Kind | Used by | Suggestion |\n")
	sb.WriteString("| :--- | :--- | :--- | :--- |\n")
	for _, ref := range unresolved {
		from := ref.FromElementID
		if e, ok := g.project.Element(ref.FromElementID); ok {
			from = e.Hierarchy.QualifiedName
		}
		suggestion := "-"
		if ref.Suggestion != "" {
			suggestion = fmt.Sprintf("did you mean `%s`?", ref.Suggestion)
		}
		fmt.Fprintf(sb, "| `%s` | %s | `%s` | %s |\n", ref.ReferenceText, ref.ReferenceType, from, suggestion)
	}
	sb.WriteString("\n")
}

func (g *MarkdownGenerator) buildAINotes(ctx context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Architecture Notes\n\n")

	overview, err := g.summarizer.SummarizeProject(ctx, g.engine.Chunks())
	if err != nil {
		return "", err
	}
	sb.WriteString(strings.TrimSpace(overview))
	sb.WriteString("\n")

	hotspots := g.Hotspots(3)
	for _, e := range hotspots {
		chunk := g.engine.ChunkFor(e)
		related := g.engine.RelatedByGraph(e, 2, 4)
		deep, err := g.summarizer.SummarizeElement(ctx, chunk, e.Signature, related)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "\n### `%s`\n\n", e.Hierarchy.QualifiedName)
		sb.WriteString(strings.TrimSpace(deep))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
