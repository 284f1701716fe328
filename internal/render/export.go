package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rustex/internal/graph"
	"rustex/internal/knowledge"
)

// Leaf elements spanning at most this many lines are folded into one
// per-module chunk instead of getting a retrieval chunk of their own.
const smallLeafLines = 4

// RAGChunk is one line of chunks.jsonl. Kind is "element" for a standalone
// chunk and "module_group" for folded small leaves.
type RAGChunk struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Module   string   `json:"module_path"`
	Elements []string `json:"element_ids"`
	Text     string   `json:"text"`
}

// Exporter writes the machine-readable outputs: the whole model as JSON and
// retrieval chunks as JSONL.
type Exporter struct {
	project *graph.Project
	engine  *knowledge.Engine
}

func NewExporter(p *graph.Project) *Exporter {
	return &Exporter{project: p, engine: knowledge.NewEngine(p, nil, nil)}
}

// ExportJSON writes the full project model to project.json.
func (x *Exporter) ExportJSON(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := x.project.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	path := filepath.Join(outputDir, "project.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Chunks builds the retrieval chunks in module order. Elements large enough
// to stand alone become one chunk each; small leaves within a module are
// folded into a single overview chunk so one-line consts and aliases do not
// dominate retrieval results.
func (x *Exporter) Chunks() []RAGChunk {
	var out []RAGChunk
	for _, group := range x.project.Modules() {
		var smalls []RAGChunk
		for _, e := range group.Elements {
			chunk := x.engine.ChunkFor(e)
			rc := RAGChunk{
				ID:       e.ID,
				Kind:     "element",
				Module:   group.Path,
				Elements: []string{e.ID},
				Text:     chunk.ToEmbeddableText(),
			}
			span := e.Location.EndLine - e.Location.StartLine + 1
			if len(e.Hierarchy.ChildrenIDs) == 0 && span <= smallLeafLines {
				smalls = append(smalls, rc)
				continue
			}
			out = append(out, rc)
		}
		switch len(smalls) {
		case 0:
		case 1:
			out = append(out, smalls[0])
		default:
			out = append(out, foldSmallLeaves(group.Path, smalls))
		}
	}
	return out
}

func foldSmallLeaves(modulePath string, smalls []RAGChunk) RAGChunk {
	label := modulePath
	if label == "" {
		label = "crate root"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Small items in %s:\n", label)
	ids := make([]string, 0, len(smalls))
	for _, s := range smalls {
		ids = append(ids, s.Elements...)
		sb.WriteString(s.Text)
		sb.WriteString("\n")
	}
	id := "group:crate"
	if modulePath != "" {
		id = "group:" + modulePath
	}
	return RAGChunk{
		ID:       id,
		Kind:     "module_group",
		Module:   modulePath,
		Elements: ids,
		Text:     sb.String(),
	}
}

// ExportChunks writes chunks.jsonl, one chunk per line.
func (x *Exporter) ExportChunks(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outputDir, "chunks.jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, chunk := range x.Chunks() {
		if err := enc.Encode(chunk); err != nil {
			return fmt.Errorf("failed to write chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}
