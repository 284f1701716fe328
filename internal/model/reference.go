package model

type ReferenceType string

const (
	RefFunctionCall    ReferenceType = "function_call"
	RefTypeUsage       ReferenceType = "type_usage"
	RefMacroInvocation ReferenceType = "macro_invocation"
)

// ReferenceContext records where a usage occurred. Scope is the qualified
// name of the enclosing element; IsDefinition stays false for usage-site
// references and is reserved for declaration-site entries.
type ReferenceContext struct {
	Scope        string `json:"scope"`
	IsDefinition bool   `json:"is_definition"`
}

// CrossReference links a usage inside one element to the element it names.
// ToElementID is set only when resolution succeeded; unresolved references
// are a normal terminal state. Suggestion, when present, is the closest
// declared name to an unresolved reference text.
type CrossReference struct {
	FromElementID string           `json:"from_element_id"`
	ToElementID   *string          `json:"to_element_id,omitempty"`
	ReferenceType ReferenceType    `json:"reference_type"`
	ReferenceText string           `json:"reference_text"`
	IsResolved    bool             `json:"is_resolved"`
	Context       ReferenceContext `json:"context"`
	Suggestion    string           `json:"suggestion,omitempty"`
}

// RawUsage is an identifier occurrence recorded by the visitor before
// resolution. FromElementID/Scope identify the enclosing element at the
// usage site.
type RawUsage struct {
	ReferenceType ReferenceType
	Text          string
	FromElementID string
	Scope         string
	Line          int
}
