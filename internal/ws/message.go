package ws

import "github.com/GriffinCanCode/FileMaster/internal/domain/walker"

// Message types
const (
	// Client → Server
	TypeSearch = "search"
	TypeCancel = "cancel"
	TypePing   = "ping"

	// Server → Client
	TypeConnected = "connected"
	TypeMatch     = "match"
	TypeComplete  = "complete"
	TypeCancelled = "cancelled"
	TypePong      = "pong"
	TypeError     = "error"
)

// Message is the single frame shape in both directions. ID correlates a
// client request with the frames it produces.
type Message struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	SessionID string         `json:"session_id,omitempty"`

	Match     *walker.SearchMatch `json:"match,omitempty"`
	Count     int                 `json:"count,omitempty"`
	Truncated bool                `json:"truncated,omitempty"`

	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Outcome string `json:"outcome,omitempty"`

	Timestamp int64 `json:"timestamp,omitempty"`
}

func knownType(t string) bool {
	switch t {
	case TypeSearch, TypeCancel, TypePing,
		TypeConnected, TypeMatch, TypeComplete, TypeCancelled, TypePong, TypeError:
		return true
	}
	return false
}
