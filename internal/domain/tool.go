package domain

// ─── Tool Definitions ───────────────────────────────────────────────────────
// A tool is a named, schema-described operation the gateway exposes to
// callers. Descriptors are built once at process start and never mutated.

// ToolDescriptor describes a single tool: its stable name, a human-readable
// description, and the JSON Schema for its input parameters.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema ToolInputSchema `json:"inputSchema"`

	// Mutating marks tools that create resources; the idempotency-key
	// header applies only to these.
	Mutating bool `json:"-"`
}

// ToolInputSchema is the JSON Schema for tool inputs.
type ToolInputSchema struct {
	Type       string                    `json:"type"` // always "object"
	Required   []string                  `json:"required,omitempty"`
	Properties map[string]SchemaProperty `json:"properties"`
}

// SchemaProperty defines a single property in a JSON Schema.
type SchemaProperty struct {
	Type        string                    `json:"type"`
	Description string                    `json:"description,omitempty"`
	Default     any                       `json:"default,omitempty"`
	Items       *SchemaProperty           `json:"items,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
}

// Manifest is the discovery document listing the gateway's tools.
type Manifest struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Homepage    string         `json:"homepage"`
	Tools       []ManifestTool `json:"tools"`
}

// ManifestTool is the manifest's view of a tool. It carries the same schema
// as ToolDescriptor under the key the original manifest format uses.
type ManifestTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ToolInputSchema `json:"parameters"`
}
