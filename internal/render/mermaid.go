package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"rustex/internal/graph"
)

// MermaidGenerator creates diagrams from the analyzed project.
type MermaidGenerator struct{}

// GenerateModuleHierarchy draws the module tree as a top-down graph, one
// node per module path with its element count.
func (m *MermaidGenerator) GenerateModuleHierarchy(p *graph.Project) string {
	groups := p.Modules()
	if len(groups) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")

	present := make(map[string]bool, len(groups))
	for _, g := range groups {
		present[g.Path] = true
	}

	for _, g := range groups {
		label := moduleLabel(g.Path)
		sb.WriteString(fmt.Sprintf("    %s[%q]\n", moduleNodeID(g.Path), fmt.Sprintf("%s (%d items)", label, len(g.Elements))))
	}
	for _, g := range groups {
		if g.Path == "" {
			continue
		}
		parent := parentModule(g.Path)
		if !present[parent] {
			parent = ""
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", moduleNodeID(parent), moduleNodeID(g.Path)))
	}

	sb.WriteString("```\n")
	return sb.String()
}

// GenerateDependencyFlow draws resolved references as a left-to-right
// graph between element names, keeping only the heaviest edges. Returns
// the empty string when nothing resolved.
func (m *MermaidGenerator) GenerateDependencyFlow(p *graph.Project, limit int) string {
	type edge struct {
		from string
		to   string
	}
	weights := make(map[edge]int)
	for _, ref := range p.References {
		if !ref.IsResolved {
			continue
		}
		from, okFrom := p.Element(ref.FromElementID)
		to, okTo := p.Element(*ref.ToElementID)
		if !okFrom || !okTo || from.Name == to.Name {
			continue
		}
		weights[edge{from: from.Name, to: to.Name}]++
	}
	if len(weights) == 0 {
		return ""
	}

	type weighted struct {
		e edge
		w int
	}
	edges := make([]weighted, 0, len(weights))
	for e, w := range weights {
		edges = append(edges, weighted{e: e, w: w})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].w == edges[j].w {
			if edges[i].e.from == edges[j].e.from {
				return edges[i].e.to < edges[j].e.to
			}
			return edges[i].e.from < edges[j].e.from
		}
		return edges[i].w > edges[j].w
	})
	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph LR\n")

	seen := make(map[string]bool)
	for _, e := range edges {
		for _, name := range []string{e.e.from, e.e.to} {
			if seen[name] {
				continue
			}
			seen[name] = true
			sb.WriteString(fmt.Sprintf("    %s[%q]\n", sanitizeMermaidID(name), name))
		}
	}
	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(e.e.from), sanitizeMermaidID(e.e.to)))
	}

	sb.WriteString("```\n")
	return sb.String()
}

func moduleLabel(path string) string {
	if path == "" {
		return "crate"
	}
	parts := strings.Split(path, "::")
	return parts[len(parts)-1]
}

func parentModule(path string) string {
	idx := strings.LastIndex(path, "::")
	if idx == -1 {
		return ""
	}
	return path[:idx]
}

func moduleNodeID(path string) string {
	if path == "" {
		return "crate"
	}
	return sanitizeMermaidID("mod_" + path)
}

var mermaidIDPattern = regexp.MustCompile(`[^a-z0-9_]`)

func sanitizeMermaidID(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return "node"
	}
	v = mermaidIDPattern.ReplaceAllString(strings.ReplaceAll(v, "-", "_"), "_")
	if v == "" {
		return "node"
	}
	if v[0] >= '0' && v[0] <= '9' {
		v = "n_" + v
	}
	return v
}
