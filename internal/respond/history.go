package respond

import (
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// Turn is one completed exchange: what the user asked and what the
// assistant replied. History arrives ordered oldest-first from the
// messaging layer and is consumed read-only.
type Turn struct {
	User      string
	Assistant string
}

// truncateHistory keeps the most recent depth turns.
func truncateHistory(history []Turn, depth int) []Turn {
	if depth <= 0 || len(history) <= depth {
		return history
	}
	return history[len(history)-depth:]
}

// renderHistory flattens turns into a transcript for the query-rewrite
// prompt.
func renderHistory(history []Turn) string {
	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString("User: ")
		sb.WriteString(turn.User)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(turn.Assistant)
		sb.WriteString("\n")
	}
	return sb.String()
}

// historyMessages converts turns into alternating chat messages for the
// synthesis call.
func historyMessages(history []Turn) []*ai.Message {
	msgs := make([]*ai.Message, 0, len(history)*2)
	for _, turn := range history {
		msgs = append(msgs,
			ai.NewUserMessage(ai.NewTextPart(turn.User)),
			ai.NewModelMessage(ai.NewTextPart(turn.Assistant)))
	}
	return msgs
}
