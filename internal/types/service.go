package types

// Category represents service categories
type Category string

const (
	CategoryFilesystem Category = "filesystem"
)

// Service represents a service definition
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Tools        []Tool   `json:"tools"`
}

// Tool represents a service tool. ID is qualified with the service ID
// ("filesystem.get_files"); Name is the bare name exposed to agents.
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
	Destructive bool        `json:"destructive,omitempty"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	// Items is the element type for array parameters.
	Items string `json:"items,omitempty"`
}

// Parameter types understood by the transports.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// Context carries the caller identity through a tool call.
type Context struct {
	Actor     string `json:"actor"`
	RequestID string `json:"request_id,omitempty"`
	Transport string `json:"transport,omitempty"`
}

// ActorOrAnonymous returns the actor, or "anonymous" when ctx is nil or unset.
func (c *Context) ActorOrAnonymous() string {
	if c == nil || c.Actor == "" {
		return "anonymous"
	}
	return c.Actor
}

// Result represents a service execution result. Kind and Outcome are set on
// failure so callers can branch without parsing Error.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *string        `json:"error,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Outcome string         `json:"outcome,omitempty"`
}

// ExecuteRequest is the body of a tool execution request.
type ExecuteRequest struct {
	ToolID string         `json:"tool_id" binding:"required"`
	Params map[string]any `json:"params"`
}
