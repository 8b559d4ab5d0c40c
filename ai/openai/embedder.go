package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/paperit/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
//
// Embedding failures degrade gracefully: instead of returning a hard error,
// the embedder logs the failure and falls back to zero vectors of the
// configured dimensionality, so downstream retrieval gets poor-but-present
// scores rather than none at all.
type Embedder struct {
	embedder embeddings.Embedder
	dim      int
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for embeddings
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		dim:      config.EmbeddingDim,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
// On service failure it returns a zero vector instead of an error.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	embeddings, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("embedding service failed, falling back to zero vector", "err", err)
		return make([]float32, e.dim), nil
	}

	if len(embeddings) == 0 {
		e.logger.Warn("embedder returned empty result")
		return make([]float32, e.dim), nil
	}

	return embeddings[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
// On service failure it returns zero vectors instead of an error.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	embeddings, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding service failed, falling back to zero vectors", "count", len(texts), "err", err)
		fallback := make([][]float32, len(texts))
		for i := range fallback {
			fallback[i] = make([]float32, e.dim)
		}
		return fallback, nil
	}

	return embeddings, nil
}
