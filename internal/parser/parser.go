package parser

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// Parser wraps a tree-sitter parser configured for Rust. The core walks
// the trees it produces and never touches tree-sitter directly beyond
// node accessors.
type Parser struct {
	inner *sitter.Parser
}

func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	return &Parser{inner: p}
}

// Parse turns source text into a syntax tree. A tree whose root contains
// error nodes counts as a parse failure: downstream walkers assume
// well-formed input.
func (p *Parser) Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	tree, err := p.inner.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("source contains syntax errors")
	}
	return tree, nil
}

// ParseFile reads and parses one file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*sitter.Tree, []byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	tree, err := p.Parse(ctx, source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	return tree, source, nil
}
