package document

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// tokenizerModel selects the BPE encoding used for token counting. The count
// is a capacity diagnostic, not a billing figure, so one well-known encoding
// serves all chat models.
const tokenizerModel = "gpt-4"

// CountTokens returns the total token count of all text extracted from the
// folder. The index command uses it to warn when a knowledge base exceeds
// the model's context budget.
func (l *Loader) CountTokens(folder string) (int, error) {
	docs, err := l.LoadFolder(folder)
	if err != nil {
		return 0, err
	}

	enc, err := tiktoken.EncodingForModel(tokenizerModel)
	if err != nil {
		return 0, fmt.Errorf("loading tokenizer: %w", err)
	}

	total := 0
	for _, doc := range docs {
		total += len(enc.Encode(doc.Content, nil, nil))
	}
	return total, nil
}
