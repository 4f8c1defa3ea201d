package respond

import (
	"context"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"

	"github.com/doctalk0/doctalk/internal/index"
	"github.com/doctalk0/doctalk/internal/log"
)

// Options tunes the response pipeline. Zero values fall back to the
// defaults below.
type Options struct {
	Language        string        // fallback-message language, "en" or "ru"
	RetrieverDocs   int           // chunks fetched per query (default 5)
	ThresholdDocs   float64       // minimum similarity to enter the context (default 0.7)
	ThresholdPrompt float64       // minimum best-match similarity to cite sources (default 0.8)
	HistoryDepth    int           // turns of history kept for rewriting (default 10)
	MaxSuggestions  int           // follow-up question cap (default 3)
	ModelTimeout    time.Duration // per model call, 0 disables
	RequestsPerSec  float64       // model-call rate limit, 0 disables
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = "en"
	}
	if o.RetrieverDocs <= 0 {
		o.RetrieverDocs = 5
	}
	if o.ThresholdDocs <= 0 {
		o.ThresholdDocs = 0.7
	}
	if o.ThresholdPrompt <= 0 {
		o.ThresholdPrompt = 0.8
	}
	if o.HistoryDepth <= 0 {
		o.HistoryDepth = 10
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = 3
	}
	return o
}

// Response is what the messaging layer relays to the user. Sources is nil
// when the relevance gate rejected citation; Suggestions is nil when the
// model declined or the suggestion call failed.
type Response struct {
	Answer      string
	Sources     []string
	Suggestions []string
}

// Responder runs the retrieval-augmented answer pipeline against indexes
// held by a Store.
type Responder struct {
	store    *index.Store
	embedder index.Embedder
	model    Model
	logger   log.Logger
	opts     Options
	retry    RetryConfig
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewResponder creates a Responder. A nil logger discards output.
func NewResponder(store *index.Store, embedder index.Embedder, model Model, logger log.Logger, opts Options) *Responder {
	if logger == nil {
		logger = log.NewNop()
	}
	opts = opts.withDefaults()

	var limiter *rate.Limiter
	if opts.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1)
	}

	return &Responder{
		store:    store,
		embedder: embedder,
		model:    model,
		logger:   logger.With("component", "respond"),
		opts:     opts,
		retry:    DefaultRetryConfig(),
		limiter:  limiter,
		now:      time.Now,
	}
}

// Generate answers the user's message against the folder's knowledge base.
// It never returns an error: failures degrade to a fallback answer with nil
// sources and suggestions.
func (r *Responder) Generate(ctx context.Context, folder, userMessage string, history []Turn) Response {
	ix, ok := r.store.Get(folder)
	if !ok {
		return Response{Answer: fallback(r.opts.Language, msgNoIndex)}
	}

	history = truncateHistory(history, r.opts.HistoryDepth)

	query := r.rewriteQuery(ctx, userMessage, history)

	queryVec, err := r.embedQuery(ctx, query)
	if err != nil {
		r.logger.Error("query embedding failed", "error", err)
		return Response{Answer: fallback(r.opts.Language, msgError)}
	}

	results := ix.Search(queryVec, r.opts.RetrieverDocs)
	relevant := index.FilterRelevant(results, r.opts.ThresholdDocs)
	if len(relevant) == 0 {
		// Fast path: nothing worth citing, skip the synthesis call.
		return Response{Answer: fallback(r.opts.Language, msgNotFound)}
	}

	answer, err := r.synthesize(ctx, userMessage, relevant, history)
	if err != nil {
		r.logger.Error("answer synthesis failed", "error", err)
		return Response{Answer: fallback(r.opts.Language, msgError)}
	}

	resp := Response{Answer: answer}
	if index.MaxSimilarity(results) >= r.opts.ThresholdPrompt {
		resp.Sources = buildReferences(relevant)
	}
	resp.Suggestions = r.suggest(ctx, userMessage, answer)
	return resp
}

// rewriteQuery turns a follow-up question into a standalone search query.
// With no history the raw message is already standalone and the model call
// is skipped. A rewrite failure falls back to the raw message so retrieval
// still happens.
func (r *Responder) rewriteQuery(ctx context.Context, userMessage string, history []Turn) string {
	if len(history) == 0 {
		return userMessage
	}

	prompt := rewritePrompt(history, userMessage)
	reply, err := r.completeWithRetry(ctx, rewriteSystem,
		[]*ai.Message{ai.NewUserMessage(ai.NewTextPart(prompt))})
	if err != nil {
		r.logger.Warn("query rewrite failed, using raw message", "error", err)
		return userMessage
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return userMessage
	}
	r.logger.Debug("query rewritten", "query", reply)
	return reply
}

func (r *Responder) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ModelTimeout)
		defer cancel()
	}
	return r.embedder.Embed(ctx, query)
}

func (r *Responder) synthesize(ctx context.Context, userMessage string, relevant []index.Scored, history []Turn) (string, error) {
	texts := make([]string, len(relevant))
	for i, sc := range relevant {
		texts[i] = sc.Chunk.Text
	}
	contextText := strings.Join(texts, "\n\n")

	messages := historyMessages(history)
	messages = append(messages,
		ai.NewUserMessage(ai.NewTextPart(synthesizePrompt(contextText, userMessage))))

	return r.completeWithRetry(ctx, synthesizeSystem(r.now()), messages)
}

// suggest proposes follow-up questions for the answer. Best effort: any
// failure is logged and yields nil without affecting the primary answer.
func (r *Responder) suggest(ctx context.Context, userPrompt, answer string) []string {
	prompt := suggestPrompt(userPrompt, answer, r.opts.MaxSuggestions)
	reply, err := r.completeWithRetry(ctx, suggestSystem,
		[]*ai.Message{ai.NewUserMessage(ai.NewTextPart(prompt))})
	if err != nil {
		r.logger.Warn("suggestion generation failed", "error", err)
		return nil
	}
	return parseSuggestions(reply, r.opts.MaxSuggestions)
}
