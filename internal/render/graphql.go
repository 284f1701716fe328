package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rustex/internal/graph"
)

// graphSchema describes the exported data model in GraphQL SDL. Field names
// mirror the JSON tags on the model types so codegraph.json conforms to the
// schema as written, with no renaming layer in between.
const graphSchema = `"""Code analysis graph for one Rust crate."""

"Free-form JSON object, used for plugin metadata."
scalar JSON

enum element_type {
  function
  struct
  enum
  trait
  impl
  module
  constant
  static
  type_alias
  macro
  union
}

enum visibility_kind {
  public
  restricted
  private
}

enum reference_type {
  function_call
  type_usage
  macro_invocation
}

enum complexity_level {
  low
  medium
  high
  very_high
}

type Visibility {
  kind: visibility_kind!
  "Restriction token for the restricted kind, e.g. crate or super."
  scope: String
}

type Location {
  file: String!
  start_line: Int!
  start_col: Int!
  end_line: Int!
  end_col: Int!
}

type HalsteadMetrics {
  distinct_operators: Int!
  distinct_operands: Int!
  total_operators: Int!
  total_operands: Int!
  vocabulary: Int!
  length: Int!
}

type ComplexityMetrics {
  cyclomatic: Int!
  cognitive: Int!
  halstead: HalsteadMetrics!
  nesting_depth: Int!
  lines_of_code: Int!
  parameter_count: Int!
  return_count: Int!
}

type Hierarchy {
  parent_id: ID
  children_ids: [ID!]
  nesting_level: Int!
  qualified_name: String!
  module_path: String!
}

type CodeElement {
  id: ID!
  element_type: element_type!
  name: String!
  signature: String
  visibility: Visibility!
  doc_comments: [String!]
  inline_comments: [String!]
  attributes: [String!]
  generic_params: [String!]
  location: Location!
  complexity: Int
  complexity_metrics: ComplexityMetrics
  dependencies: [String!]
  hierarchy: Hierarchy!
  metadata: JSON
  hash: String
}

type ReferenceContext {
  "Qualified name of the element enclosing the usage site."
  scope: String!
  is_definition: Boolean!
}

type CrossReference {
  from_element_id: ID!
  to_element_id: ID
  reference_type: reference_type!
  reference_text: String!
  is_resolved: Boolean!
  context: ReferenceContext!
  "Closest declared name when resolution failed."
  suggestion: String
}

type FileRecord {
  path: String!
  hash: String!
  lines: Int!
  element_count: Int!
}

type Project {
  name: String!
  root: String!
  edition: String
  files: [FileRecord!]!
  elements: [CodeElement!]!
  references: [CrossReference!]!
}

type Query {
  project: Project!
  element(id: ID!): CodeElement
  elements_by_name(name: String!): [CodeElement!]!
}
`

// GraphQLExporter writes the analysis model as an SDL schema plus a data
// document shaped like a query response for the schema's root field.
type GraphQLExporter struct {
	project *graph.Project
}

func NewGraphQLExporter(p *graph.Project) *GraphQLExporter {
	return &GraphQLExporter{project: p}
}

// Schema returns the SDL text.
func (x *GraphQLExporter) Schema() string { return graphSchema }

// Data returns the codegraph document: {"data": {"project": ...}}.
func (x *GraphQLExporter) Data() ([]byte, error) {
	doc := map[string]any{
		"data": map[string]any{
			"project": x.project,
		},
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal code graph: %w", err)
	}
	return append(out, '\n'), nil
}

// Export writes schema.graphql and codegraph.json into outputDir.
func (x *GraphQLExporter) Export(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	schemaPath := filepath.Join(outputDir, "schema.graphql")
	if err := os.WriteFile(schemaPath, []byte(graphSchema), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", schemaPath, err)
	}
	data, err := x.Data()
	if err != nil {
		return err
	}
	dataPath := filepath.Join(outputDir, "codegraph.json")
	if err := os.WriteFile(dataPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dataPath, err)
	}
	return nil
}
