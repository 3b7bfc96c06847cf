// Package llm defines the chat surface shared by the query translator and
// answer synthesizer, along with the registry the provider backends plug
// into.
package llm

// Role identifies who authored a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// Response is a provider completion. Content carries the raw completion
// text; callers sanitize it before use.
type Response struct {
	Content string
	Usage   TokenUsage
}

// TokenUsage reports the token counts a provider charged for one request.
// Providers that do not report usage leave it zero.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}
