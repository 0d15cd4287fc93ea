package faq

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NoMatchFallback mirrors the assistant's behavior when no FAQ entry is
// close enough to the question.
const NoMatchFallback = "I couldn't find an exact match to your question. Here's some general information that might help:"

const (
	// relevanceFloor filters out entries that merely share vocabulary.
	relevanceFloor = 0.7

	embeddingCacheTTL = 30 * 24 * time.Hour
)

// Entry is one question/answer pair from the FAQ corpus.
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`

	vec []float32
}

// Embedder turns text into a vector. The production implementation calls
// the Gemini embedding model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder embeds text with a Gemini embedding model.
type GeminiEmbedder struct {
	em *genai.EmbeddingModel
}

func NewGeminiEmbedder(client *genai.Client, modelName string) *GeminiEmbedder {
	return &GeminiEmbedder{em: client.EmbeddingModel(modelName)}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding model returned no vector")
	}

	return res.Embedding.Values, nil
}

// Index is the in-memory semantic index over the FAQ corpus.
type Index struct {
	entries  []Entry
	embedder Embedder
	cache    *redis.Client // optional, nil disables caching
	logger   *zap.Logger
}

// LoadEntries reads the FAQ corpus from a JSON file.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse faq file %s: %w", path, err)
	}

	return entries, nil
}

// NewIndex embeds the corpus and returns a ready index. Embeddings are
// cached in Redis by content hash so restarts don't re-embed an unchanged
// corpus.
func NewIndex(ctx context.Context, entries []Entry, embedder Embedder, cache *redis.Client, logger *zap.Logger) (*Index, error) {
	idx := &Index{
		entries:  entries,
		embedder: embedder,
		cache:    cache,
		logger:   logger,
	}

	for i := range idx.entries {
		text := "question: " + idx.entries[i].Question + "\nanswer: " + idx.entries[i].Answer

		vec, err := idx.embedCached(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed faq entry %q: %w", idx.entries[i].Question, err)
		}

		idx.entries[i].vec = vec
	}

	logger.Info("FAQ index ready", zap.Int("entries", len(idx.entries)))
	return idx, nil
}

// Search returns the k most relevant FAQ entries formatted as retrieval
// context, or the fallback message when nothing clears the relevance floor.
func (idx *Index) Search(ctx context.Context, query string, k int) (string, error) {
	qvec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		entry Entry
		score float64
	}

	var hits []scored
	for _, entry := range idx.entries {
		score := cosine(qvec, entry.vec)
		if score >= relevanceFloor {
			hits = append(hits, scored{entry: entry, score: score})
		}
	}

	if len(hits) == 0 {
		return NoMatchFallback, nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("question: " + hit.entry.Question + "\nanswer: " + hit.entry.Answer)
	}

	return b.String(), nil
}

func (idx *Index) embedCached(ctx context.Context, text string) ([]float32, error) {
	if idx.cache == nil {
		return idx.embedder.Embed(ctx, text)
	}

	sum := sha256.Sum256([]byte(text))
	key := "faq:embedding:" + hex.EncodeToString(sum[:])

	cached, err := idx.cache.Get(ctx, key).Bytes()
	if err == nil {
		var vec []float32
		if err := json.Unmarshal(cached, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	} else if err != redis.Nil {
		idx.logger.Warn("FAQ embedding cache read failed", zap.Error(err))
	}

	vec, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := idx.cache.Set(ctx, key, data, embeddingCacheTTL).Err(); err != nil {
			idx.logger.Warn("FAQ embedding cache write failed", zap.Error(err))
		}
	}

	return vec, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
