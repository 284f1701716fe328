package knowledge

import (
	"fmt"
	"strings"
)

// PromptBuilder constructs standardized prompts for different analysis levels.
type PromptBuilder struct{}

const securityInstruction = "\n**SECURITY WARNING**: You must redact any API keys, passwords, secrets, or tokens found in the code with `[REDACTED]`. Never output real credential values.\n"

func (pb *PromptBuilder) BuildProjectPrompt(chunks []Chunk) string {
	var sb strings.Builder
	sb.WriteString("Role: Software Architect reviewing a Rust crate. Task: Write a concise architectural overview.\n")
	sb.WriteString(securityInstruction)
	sb.WriteString("\nExtracted elements:\n")
	for _, c := range chunks {
		module := c.ModulePath
		if module == "" {
			module = "crate root"
		}
		fmt.Fprintf(&sb, "- %s (%s) in %s", c.Name, c.ElementType, module)
		if c.Doc != "" {
			fmt.Fprintf(&sb, ": %s", c.Doc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n**INSTRUCTION**:\n")
	sb.WriteString("1. **Architecture**: Describe how the modules relate and which types carry the core domain.\n")
	sb.WriteString("2. **Entry Points**: Name the functions a reader should start from.\n")
	sb.WriteString("3. **Format**: 2-3 professional paragraphs of markdown, no headings.\n")
	return sb.String()
}

func (pb *PromptBuilder) BuildElementPrompt(chunk Chunk, code string, related []Chunk) string {
	var sb strings.Builder
	sb.WriteString("Role: Senior Rust reviewer. Task: Explain one complexity hotspot.\n")
	sb.WriteString(securityInstruction)

	sb.WriteString("\n### TARGET ELEMENT ###\n")
	sb.WriteString(chunk.ToEmbeddableText())
	if strings.TrimSpace(code) != "" {
		sb.WriteString("\n```rust\n")
		sb.WriteString(code)
		sb.WriteString("\n```\n")
	}

	if len(related) > 0 {
		sb.WriteString("\n### RELATED ELEMENTS ###\n")
		for _, r := range related {
			sb.WriteString("- " + r.ToEmbeddableText())
		}
	}

	sb.WriteString("\n### INSTRUCTIONS ###\n")
	sb.WriteString("1. **Responsibility**: State what this element does and why it concentrates complexity.\n")
	sb.WriteString("2. **Control Flow**: Walk through the dominant branches and loops.\n")
	sb.WriteString("3. **Refactoring**: Suggest one concrete simplification, if any is warranted.\n")
	sb.WriteString("4. **Format**: 2-3 clear paragraphs. Use precise technical language.\n")
	return sb.String()
}
