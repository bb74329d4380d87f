// Package conversation holds per-session transcript state: role-tagged
// turns, a bounded in-memory store, and the per-session locking used to
// serialize turn handling.
package conversation

// Roles of transcript turns, matching the chat message contract of the
// understanding engine.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a session transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
