package embed

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/briefing-engine/briefing/internal/core"
)

type stubGenerator struct {
	calls    [][]string
	fail     map[int]bool // batch index -> should fail
	batchNo  int
	embedded int // texts embedded so far; the n-th text gets vector {3, n}
}

func (s *stubGenerator) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	idx := s.batchNo
	s.batchNo++
	s.calls = append(s.calls, texts)
	if s.fail[idx] {
		return nil, errors.New("upstream exploded")
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		s.embedded++
		out[i] = []float64{3, float64(s.embedded)}
	}
	return out, nil
}

func TestEmbedUnavailableWhenNoBackend(t *testing.T) {
	e := New(nil, 768)
	_, err := e.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, core.ErrEmbedderUnavailable) {
		t.Errorf("expected ErrEmbedderUnavailable, got %v", err)
	}
}

func TestEmbedNormalizesToUnitNorm(t *testing.T) {
	gen := &stubGenerator{}
	e := New(gen, 768)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for _, v := range vecs {
		norm := math.Sqrt(v[0]*v[0] + v[1]*v[1])
		if math.Abs(norm-1.0) > 1e-9 {
			t.Errorf("expected unit norm, got %f", norm)
		}
	}
}

func TestEmbedPreservesOrderAcrossBatches(t *testing.T) {
	gen := &stubGenerator{}
	e := New(gen, 768).WithBatchSize(2)
	texts := []string{"a", "b", "c", "d", "e"}
	vecs, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vecs))
	}
	if len(gen.calls) != 3 {
		t.Errorf("expected 3 batches of size <=2, got %d", len(gen.calls))
	}
	// The i-th text's raw vector is {3, i+1}; normalization keeps the ratio.
	for i, v := range vecs {
		if want := float64(i+1) / 3; math.Abs(v[1]/v[0]-want) > 1e-9 {
			t.Errorf("vector %d out of order: got ratio %f, want %f", i, v[1]/v[0], want)
		}
	}
}

func TestEmbedFallsBackToZeroVectorOnBatchFailure(t *testing.T) {
	gen := &stubGenerator{fail: map[int]bool{1: true}}
	e := New(gen, 2).WithBatchSize(2)
	texts := []string{"a", "b", "c", "d"}
	vecs, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed should not fail the whole call on one batch failure: %v", err)
	}
	// First batch (a,b) succeeds -> unit vectors; second batch (c,d) fails -> zero vectors.
	if vecs[0][0] == 0 && vecs[0][1] == 0 {
		t.Error("expected first batch to succeed with a non-zero vector")
	}
	if vecs[2][0] != 0 || vecs[2][1] != 0 {
		t.Errorf("expected failed batch to fall back to zero vector, got %v", vecs[2])
	}
}
