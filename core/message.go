package core

// Conversation roles used throughout history handling and prompt building.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single conversational turn. History is an ordered slice of
// messages, oldest first.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// UserMessage constructs a user-role message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// AssistantMessage constructs an assistant-role message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// LastN returns up to n trailing messages from history without copying the
// backing array. Callers must not mutate the result.
func LastN(history []Message, n int) []Message {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
