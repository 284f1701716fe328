package knowledge

import (
	"fmt"
	"strings"
)

// Chunk represents a structured piece of code knowledge, ready for
// indexing, embedding or export.
type Chunk struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ElementType   string   `json:"element_type"`
	ModulePath    string   `json:"module_path"`
	QualifiedName string   `json:"qualified_name"`
	File          string   `json:"file"`
	Signature     string   `json:"signature"`
	Doc           string   `json:"doc,omitempty"`
	Complexity    int      `json:"complexity,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	UsedBy        []string `json:"used_by,omitempty"`
}

// ToEmbeddableText converts the structured chunk into a single string
// optimized for embedding models.
func (c Chunk) ToEmbeddableText() string {
	var sb strings.Builder
	module := c.ModulePath
	if module == "" {
		module = "crate root"
	}
	fmt.Fprintf(&sb, "Symbol: %s (%s) in %s\n", c.Name, c.ElementType, module)
	if c.Doc != "" {
		fmt.Fprintf(&sb, "Context: %s\n", c.Doc)
	}
	fmt.Fprintf(&sb, "Definition: %s\n", c.Signature)
	if c.Complexity > 0 {
		fmt.Fprintf(&sb, "Complexity: %d\n", c.Complexity)
	}
	if len(c.Dependencies) > 0 {
		fmt.Fprintf(&sb, "Depends on: %s\n", strings.Join(c.Dependencies, ", "))
	}
	if len(c.UsedBy) > 0 {
		fmt.Fprintf(&sb, "Used by: %s\n", strings.Join(c.UsedBy, ", "))
	}
	return sb.String()
}
