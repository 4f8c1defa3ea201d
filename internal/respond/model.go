package respond

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Model is the chat-completion capability the responder consumes. Tests
// substitute a scripted implementation.
type Model interface {
	Complete(ctx context.Context, system string, messages []*ai.Message) (string, error)
}

// genkitModel adapts a genkit instance and model name to the Model
// interface.
type genkitModel struct {
	g     *genkit.Genkit
	model string
}

// NewGenkitModel wraps a genkit instance for use with Responder. The model
// name is the fully qualified genkit name, e.g. "googleai/gemini-2.0-flash".
func NewGenkitModel(g *genkit.Genkit, model string) Model {
	return &genkitModel{g: g, model: model}
}

func (m *genkitModel) Complete(ctx context.Context, system string, messages []*ai.Message) (string, error) {
	resp, err := genkit.Generate(ctx, m.g,
		ai.WithModelName(m.model),
		ai.WithSystem(system),
		ai.WithMessages(messages...),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Text(), nil
}
