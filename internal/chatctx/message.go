package chatctx

// Roles used in conversation transcripts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // Message content
}
