// Package gateway implements the chat service boundary: the HTTP handler
// that forwards a message plus history to the upstream provider, and the
// client the composition engine uses to reach it.
package gateway

import (
	_ "embed"
	"strings"

	"github.com/linanwx/serifu/conversation"
	"github.com/linanwx/serifu/provider"
)

// History entry types on the wire.
const (
	TypeUser     = "user"
	TypeResponse = "response"
)

const (
	errInvalidMessage = "Invalid message"
	errInternal       = "Internal server error"
	statusMessage     = "Message API endpoint is ready"
)

//go:embed prompts/system.md
var defaultSystemPrompt string

// DefaultSystemPrompt returns the embedded system instruction.
func DefaultSystemPrompt() string {
	return strings.TrimSpace(defaultSystemPrompt)
}

// HistoryEntry is one prior turn as sent over the wire.
type HistoryEntry struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ChatRequest is the POST body.
type ChatRequest struct {
	Message             string         `json:"message"`
	ConversationHistory []HistoryEntry `json:"conversationHistory"`
}

// ChatResponse is the success body.
type ChatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the failure body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the GET probe body.
type StatusResponse struct {
	Message string   `json:"message"`
	Methods []string `json:"methods"`
}

// Request is what the composition engine asks the gateway for.
type Request struct {
	Message string
	History []conversation.HistoryMessage
}

// Wire converts the request into its POST body.
func (r Request) Wire() ChatRequest {
	history := make([]HistoryEntry, 0, len(r.History))
	for _, m := range r.History {
		typ := TypeResponse
		if m.Role == conversation.KindUser.String() {
			typ = TypeUser
		}
		history = append(history, HistoryEntry{Type: typ, Content: m.Content})
	}
	return ChatRequest{Message: r.Message, ConversationHistory: history}
}

// BuildMessages prepends the system instruction, maps history types to
// roles (only "user" stays user) and appends message as the final user turn.
func BuildMessages(systemPrompt string, history []HistoryEntry, message string) []provider.Message {
	msgs := make([]provider.Message, 0, len(history)+2)
	msgs = append(msgs, provider.SystemMessage(systemPrompt))
	for _, h := range history {
		if h.Type == TypeUser {
			msgs = append(msgs, provider.UserMessage(h.Content))
		} else {
			msgs = append(msgs, provider.AssistantMessage(h.Content))
		}
	}
	return append(msgs, provider.UserMessage(message))
}
