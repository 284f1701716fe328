package extractor

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"rustex/internal/model"
)

// Options configure one visitor pass over one file.
type Options struct {
	IncludeDocs    bool
	IncludePrivate bool
	// ElementFilter keeps only the listed types; empty keeps everything.
	// A filtered container is dropped together with its whole sub-tree.
	ElementFilter []model.ElementType
}

// DefaultOptions extract everything including docs and private items.
func DefaultOptions() Options {
	return Options{IncludeDocs: true, IncludePrivate: true}
}

// Visitor walks one file's syntax tree in a single pass and produces the
// element list plus the raw usages the resolver consumes. Scope and module
// bookkeeping is delegated to the HierarchyBuilder; every EnterScope is
// paired with an ExitScope around the child recursion so scope state can
// never leak across sibling sub-trees.
type Visitor struct {
	file string
	src  []byte
	opts Options

	builder *HierarchyBuilder
	calc    *Calculator

	elements  []*model.CodeElement
	elemIndex map[string]*model.CodeElement
	usages    []model.RawUsage

	// innermost emitted elements, for usage attribution
	elementStack []emittedElement
	deps         map[string]map[string]bool

	filter map[model.ElementType]bool

	// inside a trait body items inherit the trait's visibility
	traitVis *model.Visibility
}

type emittedElement struct {
	id            string
	qualifiedName string
}

func NewVisitor(file string, src []byte, opts Options) *Visitor {
	v := &Visitor{
		file:      file,
		src:       src,
		opts:      opts,
		builder:   NewHierarchyBuilder(),
		calc:      NewCalculator(src),
		elemIndex: make(map[string]*model.CodeElement),
		deps:      make(map[string]map[string]bool),
	}
	if len(opts.ElementFilter) > 0 {
		v.filter = make(map[model.ElementType]bool, len(opts.ElementFilter))
		for _, t := range opts.ElementFilter {
			v.filter[t] = true
		}
	}
	return v
}

// Walk visits the whole tree from the root.
func (v *Visitor) Walk(root *sitter.Node) {
	v.visit(root)
}

// Elements returns the extracted elements in traversal order.
func (v *Visitor) Elements() []*model.CodeElement {
	return v.elements
}

// ElementsAndUsages returns the elements plus the raw usages recorded
// while walking bodies, ready for the resolver.
func (v *Visitor) ElementsAndUsages() ([]*model.CodeElement, []model.RawUsage) {
	return v.elements, v.usages
}

func (v *Visitor) visit(node *sitter.Node) {
	switch node.Type() {
	case "function_item", "function_signature_item":
		v.visitFunction(node)
	case "struct_item":
		v.visitPlain(node, model.TypeStruct)
	case "enum_item":
		v.visitPlain(node, model.TypeEnum)
	case "union_item":
		v.visitPlain(node, model.TypeUnion)
	case "trait_item":
		v.visitTrait(node)
	case "impl_item":
		v.visitImpl(node)
	case "mod_item":
		v.visitModule(node)
	case "const_item":
		v.visitPlain(node, model.TypeConstant)
	case "static_item":
		v.visitPlain(node, model.TypeStatic)
	case "type_item":
		v.visitPlain(node, model.TypeTypeAlias)
	case "macro_definition":
		v.visitPlain(node, model.TypeMacro)
	case "use_declaration":
		// imported names are not usages
	case "call_expression":
		v.visitCall(node)
	case "macro_invocation":
		v.visitMacroInvocation(node)
	case "scoped_type_identifier":
		v.recordUsage(model.RefTypeUsage, node.Content(v.src), node)
	case "type_identifier":
		if v.isTypeUsagePosition(node) {
			v.recordUsage(model.RefTypeUsage, node.Content(v.src), node)
		}
	case "line_comment", "block_comment":
		v.collectInlineComment(node)
	default:
		// unmodeled kinds fall through to plain recursion
		v.visitChildren(node)
	}
}

func (v *Visitor) visitChildren(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		v.visit(node.Child(i))
	}
}

// visitFunction handles free functions, methods, nested fns and bodyless
// trait/extern signatures.
func (v *Visitor) visitFunction(node *sitter.Node) {
	name := fieldText(node, "name", v.src)
	elem := v.emit(node, model.TypeFunction, name, v.calc.FunctionMetrics(node))
	if elem == nil {
		return
	}
	// a function body is a scope: nested fn and mod items hang off it
	v.builder.EnterScope(elem.ID, elem.Name)
	v.pushElement(elem)
	v.visitChildren(node)
	v.popElement()
	v.builder.ExitScope()
}

// visitPlain handles leaf declarations that never open a scope. Their
// sub-trees are still walked for type usages and inline comments.
func (v *Visitor) visitPlain(node *sitter.Node, t model.ElementType) {
	name := fieldText(node, "name", v.src)
	elem := v.emit(node, t, name, v.calc.StructuralMetrics(t, node))
	if elem == nil {
		return
	}
	v.pushElement(elem)
	v.visitChildren(node)
	v.popElement()
}

func (v *Visitor) visitTrait(node *sitter.Node) {
	name := fieldText(node, "name", v.src)
	elem := v.emit(node, model.TypeTrait, name, v.calc.StructuralMetrics(model.TypeTrait, node))
	if elem == nil {
		return
	}
	// trait items carry no modifiers of their own; they inherit the
	// trait's visibility for filtering purposes
	prevVis := v.traitVis
	v.traitVis = &elem.Visibility

	v.builder.EnterScope(elem.ID, elem.Name)
	v.pushElement(elem)
	v.visitChildren(node)
	v.popElement()
	v.builder.ExitScope()

	v.traitVis = prevVis
}

func (v *Visitor) visitImpl(node *sitter.Node) {
	name := implName(node, v.src)
	elem := v.emit(node, model.TypeImpl, name, v.calc.StructuralMetrics(model.TypeImpl, node))
	if elem == nil {
		return
	}
	v.builder.EnterScope(elem.ID, elem.Name)
	v.pushElement(elem)
	v.visitChildren(node)
	v.popElement()
	v.builder.ExitScope()
}

func (v *Visitor) visitModule(node *sitter.Node) {
	name := fieldText(node, "name", v.src)
	elem := v.emit(node, model.TypeModule, name, v.calc.StructuralMetrics(model.TypeModule, node))
	if elem == nil {
		return
	}
	if node.ChildByFieldName("body") == nil {
		// "mod foo;" declares the module elsewhere, nothing to walk
		return
	}
	v.builder.EnterScope(elem.ID, elem.Name)
	v.builder.EnterModule(elem.Name)
	v.pushElement(elem)
	v.visitChildren(node)
	v.popElement()
	v.builder.ExitModule()
	v.builder.ExitScope()
}

func (v *Visitor) visitCall(node *sitter.Node) {
	if callee := node.ChildByFieldName("function"); callee != nil {
		v.recordUsage(model.RefFunctionCall, calleeText(callee, v.src), node)
	}
	v.visitChildren(node)
}

func (v *Visitor) visitMacroInvocation(node *sitter.Node) {
	if m := node.ChildByFieldName("macro"); m != nil {
		v.recordUsage(model.RefMacroInvocation, m.Content(v.src), node)
	}
	v.visitChildren(node)
}

// emit builds the CodeElement for a declaration node and applies the
// filtering policy. A nil return means the element and its whole sub-tree
// are dropped.
func (v *Visitor) emit(node *sitter.Node, t model.ElementType, name string, metrics model.ComplexityMetrics) *model.CodeElement {
	if name == "" {
		return nil
	}
	if v.filter != nil && !v.filter[t] {
		return nil
	}

	vis := v.visibilityOf(node, t)
	if !v.opts.IncludePrivate && !vis.IsPublic() {
		return nil
	}

	id := v.builder.GenerateID(t, name)
	hier := v.builder.BuildHierarchy(name)

	score := metrics.OverallScore()
	elem := &model.CodeElement{
		ID:            id,
		ElementType:   t,
		Name:          name,
		Signature:     signatureOf(node, v.src),
		Visibility:    vis,
		GenericParams: genericParams(node, v.src),
		Location:      locationOf(node, v.file),
		Complexity:    &score,
		Metrics:       &metrics,
		Hierarchy:     hier,
		Hash:          fmt.Sprintf("%016x", xxhash.Sum64String(node.Content(v.src))),
	}
	if v.opts.IncludeDocs {
		docs, attrs := v.leadingTrivia(node)
		elem.DocComments = docs
		elem.Attributes = attrs
		if t == model.TypeModule {
			elem.DocComments = append(elem.DocComments, v.innerDocs(node)...)
		}
	} else {
		_, elem.Attributes = v.leadingTrivia(node)
	}

	if hier.ParentID != nil {
		if parent, ok := v.elemIndex[*hier.ParentID]; ok {
			parent.Hierarchy.ChildrenIDs = append(parent.Hierarchy.ChildrenIDs, id)
		}
	}

	v.elements = append(v.elements, elem)
	v.elemIndex[id] = elem
	return elem
}

func (v *Visitor) pushElement(elem *model.CodeElement) {
	v.elementStack = append(v.elementStack, emittedElement{
		id:            elem.ID,
		qualifiedName: elem.Hierarchy.QualifiedName,
	})
}

func (v *Visitor) popElement() {
	if len(v.elementStack) > 0 {
		v.elementStack = v.elementStack[:len(v.elementStack)-1]
	}
}

// recordUsage notes one identifier occurrence for the resolver. Usages
// outside any element (a macro invocation at file root) have nothing to
// attach to and are dropped.
func (v *Visitor) recordUsage(t model.ReferenceType, text string, node *sitter.Node) {
	if text == "" || len(v.elementStack) == 0 {
		return
	}
	top := v.elementStack[len(v.elementStack)-1]
	v.usages = append(v.usages, model.RawUsage{
		ReferenceType: t,
		Text:          text,
		FromElementID: top.id,
		Scope:         top.qualifiedName,
		Line:          int(node.StartPoint().Row) + 1,
	})

	if set, ok := v.deps[top.id]; !ok {
		v.deps[top.id] = map[string]bool{text: true}
		v.elemIndex[top.id].Dependencies = append(v.elemIndex[top.id].Dependencies, text)
	} else if !set[text] {
		set[text] = true
		v.elemIndex[top.id].Dependencies = append(v.elemIndex[top.id].Dependencies, text)
	}
}

// isTypeUsagePosition filters out type_identifier nodes that declare a
// name rather than use one: the name of a type declaration and declared
// generic parameters. A struct literal's name is a usage and stays in.
func (v *Visitor) isTypeUsagePosition(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "struct_item", "enum_item", "trait_item", "union_item", "type_item":
		if name := parent.ChildByFieldName("name"); name != nil && name.StartByte() == node.StartByte() {
			return false
		}
	case "type_parameters":
		return false
	case "constrained_type_parameter":
		if left := parent.ChildByFieldName("left"); left != nil && left.StartByte() == node.StartByte() {
			return false
		}
	}
	return true
}

func (v *Visitor) visibilityOf(node *sitter.Node, t model.ElementType) model.Visibility {
	// impl blocks take no modifier; their methods carry their own
	if t == model.TypeImpl {
		return model.Public()
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "visibility_modifier" {
			continue
		}
		text := child.Content(v.src)
		if text == "pub" {
			return model.Public()
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "pub("), ")")
		return model.Restricted(inner)
	}
	if v.traitVis != nil {
		return *v.traitVis
	}
	return model.Private()
}

// leadingTrivia walks preceding siblings upward collecting the doc-comment
// and attribute run that belongs to this declaration. The run breaks at
// the first blank line or unrelated node.
func (v *Visitor) leadingTrivia(node *sitter.Node) (docs, attrs []string) {
	current := node
	for {
		prev := current.PrevSibling()
		if prev == nil || current.StartPoint().Row-prev.EndPoint().Row > 1 {
			break
		}
		switch prev.Type() {
		case "line_comment", "block_comment":
			text := prev.Content(v.src)
			if !isDocComment(text) {
				break
			}
			docs = append([]string{cleanComment(text)}, docs...)
			current = prev
			continue
		case "attribute_item":
			attrs = append([]string{prev.Content(v.src)}, attrs...)
			current = prev
			continue
		}
		break
	}
	return docs, attrs
}

// innerDocs collects "//!" comments at the top of a module body.
func (v *Visitor) innerDocs(node *sitter.Node) []string {
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var docs []string
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "line_comment" && child.Type() != "block_comment" {
			break
		}
		text := child.Content(v.src)
		if strings.HasPrefix(text, "//!") || strings.HasPrefix(text, "/*!") {
			docs = append(docs, cleanComment(text))
		}
	}
	return docs
}

// collectInlineComment attributes a plain comment inside a body to the
// innermost element. Doc-style comments belong to the following item and
// are handled by leadingTrivia instead.
func (v *Visitor) collectInlineComment(node *sitter.Node) {
	if !v.opts.IncludeDocs || len(v.elementStack) == 0 {
		return
	}
	text := node.Content(v.src)
	if isDocComment(text) {
		return
	}
	top := v.elementStack[len(v.elementStack)-1]
	v.elemIndex[top.id].InlineComments = append(v.elemIndex[top.id].InlineComments, cleanComment(text))
}

func isDocComment(text string) bool {
	return strings.HasPrefix(text, "///") || strings.HasPrefix(text, "//!") ||
		strings.HasPrefix(text, "/**") || strings.HasPrefix(text, "/*!")
}

func cleanComment(text string) string {
	if strings.HasPrefix(text, "/*") {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		var lines []string
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "*")
			line = strings.TrimPrefix(line, "!")
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, "\n")
	}
	for _, marker := range []string{"///", "//!", "//"} {
		if strings.HasPrefix(text, marker) {
			return strings.TrimSpace(strings.TrimPrefix(text, marker))
		}
	}
	return strings.TrimSpace(text)
}

func fieldText(node *sitter.Node, field string, src []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(src)
}

// implName is the type an impl block targets: "Server" for both
// "impl Server" and "impl Handler for Server", base name for generics.
func implName(node *sitter.Node, src []byte) string {
	target := node.ChildByFieldName("type")
	if target == nil {
		return ""
	}
	if target.Type() == "generic_type" {
		if base := target.ChildByFieldName("type"); base != nil {
			return base.Content(src)
		}
	}
	return target.Content(src)
}

func calleeText(callee *sitter.Node, src []byte) string {
	switch callee.Type() {
	case "field_expression":
		// for method calls the invoked name is the field, not the receiver
		if field := callee.ChildByFieldName("field"); field != nil {
			return field.Content(src)
		}
	case "generic_function":
		// strip the turbofish: parse::<i32> records as parse
		if fn := callee.ChildByFieldName("function"); fn != nil {
			return calleeText(fn, src)
		}
	}
	return callee.Content(src)
}

// signatureOf is the declaration header: everything up to the body for
// items that have one, the whole text otherwise.
func signatureOf(node *sitter.Node, src []byte) string {
	if body := node.ChildByFieldName("body"); body != nil {
		start, end := node.StartByte(), body.StartByte()
		if start < end && int(end) <= len(src) {
			return strings.TrimSpace(string(src[start:end]))
		}
	}
	return strings.TrimSpace(node.Content(src))
}

func genericParams(node *sitter.Node, src []byte) []string {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		return nil
	}
	var params []string
	for i := 0; i < int(tp.NamedChildCount()); i++ {
		params = append(params, tp.NamedChild(i).Content(src))
	}
	return params
}

func locationOf(node *sitter.Node, file string) model.Location {
	return model.Location{
		File:      file,
		StartLine: int(node.StartPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		EndCol:    int(node.EndPoint().Column) + 1,
	}
}
