package providers

import "context"

// PlaceholderModel marks a model setting that was never filled in.
const PlaceholderModel = "SET_ME"

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatResult carries the answer text. Token counts are zero when the backend
// does not report them.
type ChatResult struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (ChatResult, error)
	Model() string
}
