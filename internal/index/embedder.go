package index

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// Embedder turns text into a vector. It is the only model dependency this
// package has; tests substitute a deterministic implementation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// genkitEmbedder adapts a genkit [ai.Embedder] to the Embedder interface.
type genkitEmbedder struct {
	embedder ai.Embedder
}

// NewGenkitEmbedder wraps a genkit embedder for use with Store.
func NewGenkitEmbedder(embedder ai.Embedder) Embedder {
	return &genkitEmbedder{embedder: embedder}
}

func (g *genkitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embed text: model returned no embedding")
	}
	return resp.Embeddings[0].Embedding, nil
}
