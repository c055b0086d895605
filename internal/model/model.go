package model

import "time"

// User is a registered account. The password hash never leaves the backend.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// Conversation stores metadata about one chat thread. A conversation belongs
// to exactly one user; ownership is never transferred.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message stores a single turn in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Model          *string   `json:"model,omitempty"` // Set on assistant messages only.
	CreatedAt      time.Time `json:"created_at"`
}

// FullConversation includes the conversation metadata and all its messages.
type FullConversation struct {
	Conversation
	Messages []Message `json:"messages"`
}

// StreamResponse is the structure for a single chunk in a streaming response.
type StreamResponse struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
