package models

// Upstream message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is a validated chat turn received from the portfolio client
type ChatRequest struct {
	Message string
	History []HistoryEntry
}

// HistoryEntry is one earlier turn of the conversation as sent by the client
type HistoryEntry struct {
	Role string
	Text string
}

// ChatCompletionRequest represents an outgoing chat completion request
type ChatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []ChatCompletionMessage `json:"messages"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Temperature float32                 `json:"temperature"`
}

// ChatCompletionMessage represents a message in the chat
type ChatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionChoice represents a completion choice
type ChatCompletionChoice struct {
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// ChatCompletionResponse represents the response from the chat completion API
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
}

// ReplyResponse is the body returned to the client on success
type ReplyResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the body returned to the client on failure
type ErrorResponse struct {
	Error string `json:"error"`
}
