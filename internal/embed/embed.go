// Package embed implements the Embedder (C3): a pure function of
// (text, model) producing unit-norm vector embeddings in batches, per
// spec §4.3. It is the only core component permitted to make network
// calls from inside a pipeline stage. The per-call timeout comes from the
// backend (llm.Client.Embed applies its configured timeout to every
// batch); this package adds no timeout or retry of its own.
package embed

import (
	"context"
	"math"

	"github.com/briefing-engine/briefing/internal/core"
	"github.com/briefing-engine/briefing/internal/logger"
)

// Generator is the capability the Embedder wraps — satisfied by
// *llm.Client.
type Generator interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// DefaultBatchSize is the default number of inputs per upstream call
// (spec §4.3, B=20).
const DefaultBatchSize = 20

// Embedder batches calls to a Generator, preserves input order, and
// degrades to zero-vectors on batch failure rather than failing the whole
// call.
type Embedder struct {
	gen       Generator
	batchSize int
	dimension int
}

// New returns an Embedder. dimension is the model's fixed embedding
// dimension, used for the zero-vector fallback.
func New(gen Generator, dimension int) *Embedder {
	return &Embedder{gen: gen, batchSize: DefaultBatchSize, dimension: dimension}
}

// WithBatchSize overrides the default batch size.
func (e *Embedder) WithBatchSize(n int) *Embedder {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

// Embed produces unit-norm vectors for texts, preserving order. If the
// Embedder has no backend configured, it returns core.ErrEmbedderUnavailable
// and callers may degrade to keyword-only clustering. A failure on any one
// batch does not fail the call — affected texts get a zero-vector instead,
// per spec §4.3.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if e.gen == nil {
		return nil, core.ErrEmbedderUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vectors, err := e.gen.Embed(ctx, batch)
		if err != nil {
			logger.Warn("embed: batch failed, falling back to zero vectors", "start", start, "end", end, "error", err)
			for i := start; i < end; i++ {
				result[i] = make([]float64, e.dimension)
			}
			continue
		}
		for i, v := range vectors {
			result[start+i] = normalize(v)
		}
	}
	return result, nil
}

// normalize returns v scaled to unit L2 norm. A zero vector is returned
// unchanged (its norm cannot be made unit).
func normalize(v []float64) []float64 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += x * x
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
