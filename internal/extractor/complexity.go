package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"rustex/internal/model"
)

// Calculator computes complexity metrics over syntax sub-trees of one file.
// All methods are pure over the tree and never fail; constructs the walkers
// do not model fall through to the 1/1 floor.
type Calculator struct {
	src []byte
}

func NewCalculator(src []byte) *Calculator {
	return &Calculator{src: src}
}

// FunctionMetrics scores a function-like node (free function, method,
// default trait method, nested fn).
func (c *Calculator) FunctionMetrics(node *sitter.Node) model.ComplexityMetrics {
	m := model.ComplexityMetrics{Cyclomatic: 1, Cognitive: 0}

	c.walkCyclomatic(node, &m.Cyclomatic)
	c.walkCognitive(node, &m.Cognitive, 0)

	operators, operands := c.halsteadTokens(node)
	m.Halstead = buildHalstead(operators, operands)

	m.NestingDepth = c.nestingDepth(node)
	m.LinesOfCode = lineSpan(node)
	m.ParameterCount = parameterCount(node)
	m.ReturnCount = countDescendants(node, "return_expression")

	if m.Cognitive < 1 {
		m.Cognitive = 1
	}
	return m
}

// StructuralMetrics scores a non-function element from its member counts.
func (c *Calculator) StructuralMetrics(t model.ElementType, node *sitter.Node) model.ComplexityMetrics {
	m := model.ComplexityMetrics{Cyclomatic: 1, Cognitive: 1}

	switch t {
	case model.TypeEnum:
		variants, carrying := enumVariants(node)
		m.Cyclomatic = max(1, variants)
		m.Cognitive = max(1, variants+carrying)
	case model.TypeTrait:
		required, defaults := traitMethods(node)
		m.Cyclomatic = 1 + required
		m.Cognitive = 1 + required
		for _, d := range defaults {
			dm := c.FunctionMetrics(d)
			m.Cyclomatic += dm.Cyclomatic
			m.Cognitive += dm.Cognitive
		}
	case model.TypeImpl:
		methods := countBodyChildren(node, "function_item")
		m.Cyclomatic = max(1, methods)
		m.Cognitive = max(1, methods)
	case model.TypeModule:
		items := namedBodyChildren(node)
		m.Cyclomatic = max(1, items)
		m.Cognitive = max(1, items)
	case model.TypeStruct, model.TypeUnion:
		fields := countDescendants(node, "field_declaration")
		m.Cyclomatic = 1
		m.Cognitive = 1 + fields/4
	case model.TypeMacro:
		rules := countDescendants(node, "macro_rule")
		m.Cyclomatic = max(1, rules)
		m.Cognitive = max(1, rules)
	}

	operators, operands := c.halsteadTokens(node)
	m.Halstead = buildHalstead(operators, operands)
	m.NestingDepth = c.nestingDepth(node)
	m.LinesOfCode = lineSpan(node)
	return m
}

// walkCyclomatic counts decision points: if, match arms beyond the first,
// loops, boolean operators and the ? operator.
func (c *Calculator) walkCyclomatic(node *sitter.Node, complexity *int) {
	switch node.Type() {
	case "if_expression":
		*complexity++
	case "match_expression":
		if arms := countBodyChildren(node, "match_arm"); arms > 1 {
			*complexity += arms - 1
		}
	case "loop_expression", "while_expression", "for_expression":
		*complexity++
	case "binary_expression":
		if op := node.ChildByFieldName("operator"); op != nil {
			switch op.Content(c.src) {
			case "&&", "||":
				*complexity++
			}
		}
	case "try_expression":
		*complexity++
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		c.walkCyclomatic(node.Child(i), complexity)
	}
}

// walkCognitive weights each decision point by its nesting depth. else
// branches and boolean operators add a flat point; closures raise nesting
// for their body without costing a point themselves.
func (c *Calculator) walkCognitive(node *sitter.Node, complexity *int, nesting int) {
	childNesting := nesting

	switch node.Type() {
	case "if_expression", "match_expression",
		"loop_expression", "while_expression", "for_expression":
		*complexity += 1 + nesting
		childNesting++
	case "else_clause":
		*complexity++
	case "binary_expression":
		if op := node.ChildByFieldName("operator"); op != nil {
			switch op.Content(c.src) {
			case "&&", "||":
				*complexity++
			}
		}
	case "closure_expression":
		childNesting++
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		c.walkCognitive(node.Child(i), complexity, childNesting)
	}
}

func (c *Calculator) nestingDepth(node *sitter.Node) int {
	maxDepth := 0
	c.walkNesting(node, 0, &maxDepth)
	return maxDepth
}

func (c *Calculator) walkNesting(node *sitter.Node, depth int, maxDepth *int) {
	switch node.Type() {
	case "if_expression", "match_expression", "loop_expression",
		"while_expression", "for_expression", "closure_expression":
		depth++
		if depth > *maxDepth {
			*maxDepth = depth
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		c.walkNesting(node.Child(i), depth, maxDepth)
	}
}

// halsteadTokens classifies leaf tokens: named identifier and literal
// leaves are operands, every other leaf is an operator. Identity is the
// literal token text.
func (c *Calculator) halsteadTokens(node *sitter.Node) (map[string]int, map[string]int) {
	operators := make(map[string]int)
	operands := make(map[string]int)
	c.walkHalstead(node, operators, operands)
	return operators, operands
}

func (c *Calculator) walkHalstead(node *sitter.Node, operators, operands map[string]int) {
	if node.ChildCount() == 0 {
		text := node.Content(c.src)
		if text == "" {
			return
		}
		if node.IsNamed() && isOperandKind(node.Type()) {
			operands[text]++
		} else {
			operators[text]++
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		c.walkHalstead(node.Child(i), operators, operands)
	}
}

func isOperandKind(kind string) bool {
	switch kind {
	case "identifier", "field_identifier", "type_identifier", "primitive_type",
		"integer_literal", "float_literal", "char_literal", "string_content",
		"boolean_literal", "self", "super", "crate",
		"shorthand_field_identifier", "lifetime":
		return true
	}
	return false
}

func buildHalstead(operators, operands map[string]int) model.HalsteadMetrics {
	h := model.HalsteadMetrics{
		DistinctOperators: len(operators),
		DistinctOperands:  len(operands),
	}
	for _, n := range operators {
		h.TotalOperators += n
	}
	for _, n := range operands {
		h.TotalOperands += n
	}
	h.Vocabulary = h.DistinctOperators + h.DistinctOperands
	h.Length = h.TotalOperators + h.TotalOperands
	return h
}

func lineSpan(node *sitter.Node) int {
	return int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1
}

func parameterCount(node *sitter.Node) int {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		switch params.NamedChild(i).Type() {
		case "parameter", "self_parameter":
			count++
		}
	}
	return count
}

// countDescendants counts nodes of one kind in the whole sub-tree,
// including the root.
func countDescendants(node *sitter.Node, kind string) int {
	count := 0
	if node.Type() == kind {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countDescendants(node.Child(i), kind)
	}
	return count
}

// countBodyChildren counts direct named children of the node's body field
// matching kind.
func countBodyChildren(node *sitter.Node, kind string) int {
	body := node.ChildByFieldName("body")
	if body == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if body.NamedChild(i).Type() == kind {
			count++
		}
	}
	return count
}

// namedBodyChildren counts declarations directly inside the body,
// ignoring comments and attributes.
func namedBodyChildren(node *sitter.Node) int {
	body := node.ChildByFieldName("body")
	if body == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(body.NamedChildCount()); i++ {
		switch body.NamedChild(i).Type() {
		case "line_comment", "block_comment", "attribute_item", "inner_attribute_item":
		default:
			count++
		}
	}
	return count
}

func enumVariants(node *sitter.Node) (variants, carrying int) {
	body := node.ChildByFieldName("body")
	if body == nil {
		return 0, 0
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		v := body.NamedChild(i)
		if v.Type() != "enum_variant" {
			continue
		}
		variants++
		for j := 0; j < int(v.NamedChildCount()); j++ {
			switch v.NamedChild(j).Type() {
			case "field_declaration_list", "ordered_field_declaration_list":
				carrying++
			}
		}
	}
	return variants, carrying
}

func traitMethods(node *sitter.Node) (required int, defaults []*sitter.Node) {
	body := node.ChildByFieldName("body")
	if body == nil {
		return 0, nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		item := body.NamedChild(i)
		switch item.Type() {
		case "function_signature_item":
			required++
		case "function_item":
			defaults = append(defaults, item)
		}
	}
	return required, defaults
}
