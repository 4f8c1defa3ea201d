package respond

import (
	"fmt"
	"strings"
	"time"
)

// dateLayout matches the timestamp injected into the synthesis prompt for
// temporal grounding.
const dateLayout = "2006-01-02, 15:04:05"

const rewriteSystem = `You reformulate follow-up questions into standalone search queries.
Given a conversation transcript and the latest user message, produce one
self-contained query that captures what the user is asking about, resolving
pronouns and references to earlier turns. Keep the query in the language of
the user message. Reply with the query only, no explanations.`

func rewritePrompt(history []Turn, userMessage string) string {
	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	sb.WriteString(renderHistory(history))
	sb.WriteString("\nLatest user message: ")
	sb.WriteString(userMessage)
	sb.WriteString("\n\nStandalone search query:")
	return sb.String()
}

func synthesizeSystem(now time.Time) string {
	return fmt.Sprintf(`You are a document assistant. Answer the user's question using ONLY the
context passages provided below. If the context does not contain the answer,
say so plainly instead of guessing. Never invent citations, document names
or page numbers.

Answer in the same language as the question.

Format the answer for Telegram: plain text with at most these HTML tags:
<b>, <i>, <u>, <s>, <code>, <pre>, <a>. No other markup, no Markdown.

Current date: %s`, now.Format(dateLayout))
}

func synthesizePrompt(contextText, userMessage string) string {
	var sb strings.Builder
	sb.WriteString("Context passages:\n\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(userMessage)
	return sb.String()
}

const suggestSystem = `You propose short follow-up questions a reader might ask next, based on
concepts that appear in an assistant's answer. Each suggestion is one short
question in the language of the answer. If no follow-up questions make
sense, reply with exactly: NONE`

func suggestPrompt(userPrompt, answer string, n int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Propose up to %d follow-up questions, one per line.\n\n", n)
	sb.WriteString("Original question: ")
	sb.WriteString(userPrompt)
	sb.WriteString("\n\nAnswer:\n")
	sb.WriteString(answer)
	return sb.String()
}
