package llm

import "context"

// Request contains completion parameters
type Request struct {
	System      string
	Prompt      string
	Schema      *Schema
	Temperature float32
}

// SchemaType enumerates the JSON types usable in a response schema.
type SchemaType string

const (
	TypeString SchemaType = "string"
	TypeArray  SchemaType = "array"
	TypeObject SchemaType = "object"
)

// Schema describes the required shape of a structured completion. When set on
// a Request the provider must enforce it as a machine-checked output
// constraint, not as prose instructions.
type Schema struct {
	Type        SchemaType
	Description string
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
}

// Response contains the completion result
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Completer defines the interface for completion providers
type Completer interface {
	// Name returns the provider identifier
	Name() string

	// Complete generates a completion for the request
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Factory builds a Completer bound to one user's API key. Credentials are
// per-user, so providers are constructed per call rather than at startup.
type Factory func(apiKey string) Completer
