package context

import (
	"time"

	"github.com/ktsuji/chatctx/internal/chatctx"
)

// Context represents a named, persisted conversation transcript
type Context struct {
	Name      string            `json:"name"`       // Unique, filesystem-safe key
	Messages  []chatctx.Message `json:"messages"`   // Conversation order = slice order
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// MessageCount returns the number of messages in the context
func (c *Context) MessageCount() int {
	return len(c.Messages)
}
