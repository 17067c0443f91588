// Package ranker implements the Ranker (C6): a generic, never-failing
// top-k selector over a numbered item listing, delegating the actual
// judgment to an LLM and falling back to "first k" on any error or
// malformed response. Grounded on original_source/copilot.py's
// rank_items/_rank_single_batch/_rank_batched.
package ranker

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/briefing-engine/briefing/internal/logger"
)

// DefaultBatchSize is the per-call batch size (spec §4.6, default 10).
const DefaultBatchSize = 10

// Generator is the capability the Ranker asks for judgments — satisfied by
// *llm.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Ranker selects the top-k items from a numbered listing using an LLM,
// never failing: any upstream error or unparsable response degrades to the
// first k items of whatever batch was being judged.
type Ranker struct {
	gen Generator
}

// New returns a Ranker backed by gen.
func New(gen Generator) *Ranker {
	return &Ranker{gen: gen}
}

var itemLinePattern = regexp.MustCompile(`^\s*\[\d+\]`)

// RankItems implements spec §4.6's contract. itemsText is a newline-delimited
// listing where each line whose first non-whitespace token matches `[N] `
// defines item N. promptTemplate must contain an `%s` verb consuming the
// (possibly renumbered) items text for the current batch. Its result always
// has length <= k and every index is a valid original item index (spec §8
// property #6).
func (r *Ranker) RankItems(ctx context.Context, itemsText, promptTemplate string, k, batchSize int) []int {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	lines := itemLines(itemsText)
	n := len(lines)
	if n <= k {
		return identity(n)
	}

	current := identity(n)
	for len(current) > k {
		var next []int
		for start := 0; start < len(current); start += batchSize {
			end := start + batchSize
			if end > len(current) {
				end = len(current)
			}
			batchIndices := current[start:end]

			batchItems := renumber(lines, batchIndices)
			batchK := k
			if len(batchIndices) < batchK {
				batchK = len(batchIndices)
			}

			selected := r.rankSingleBatch(ctx, batchItems, promptTemplate, batchK, len(batchIndices))
			for _, idx := range selected {
				if idx >= 0 && idx < len(batchIndices) {
					next = append(next, batchIndices[idx])
				}
			}
		}

		if len(next) >= len(current) {
			// A round failed to make progress; stop and take the first k
			// of what we currently have rather than loop forever.
			break
		}
		current = next
	}

	if len(current) > k {
		current = current[:k]
	}
	return current
}

// rankSingleBatch asks the LLM to rank one batch (already renumbered to
// 0..len(items)-1) and returns up to topK selected local indices. Any
// error or malformed response falls back to the first topK indices.
func (r *Ranker) rankSingleBatch(ctx context.Context, itemsText, promptTemplate string, topK, numItems int) []int {
	fallback := identity(topK)
	if numItems < topK {
		fallback = identity(numItems)
	}
	if r.gen == nil {
		return fallback
	}

	prompt := fmt.Sprintf(promptTemplate, itemsText)
	response, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("ranker: generate failed, falling back to first k", "error", err)
		return fallback
	}

	indices, ok := extractIndices(response)
	if !ok {
		logger.Warn("ranker: malformed response, falling back to first k")
		return fallback
	}

	var selected []int
	seen := make(map[int]bool)
	for _, idx := range indices {
		if idx < 0 || idx >= numItems || seen[idx] {
			continue
		}
		seen[idx] = true
		selected = append(selected, idx)
		if len(selected) == topK {
			break
		}
	}
	if len(selected) == 0 {
		return fallback
	}
	return selected
}

var jsonArrayPattern = regexp.MustCompile(`\[[\d,\s]+\]`)

// extractIndices locates the first `[ ... ]` JSON array of integers in an
// LLM response.
func extractIndices(response string) ([]int, bool) {
	match := jsonArrayPattern.FindString(response)
	if match == "" {
		return nil, false
	}
	var indices []int
	if err := json.Unmarshal([]byte(match), &indices); err != nil {
		return nil, false
	}
	return indices, true
}

// itemLines returns the lines of itemsText whose first non-whitespace
// token matches `[N]`.
func itemLines(itemsText string) []string {
	var lines []string
	for _, line := range strings.Split(itemsText, "\n") {
		if itemLinePattern.MatchString(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// renumber rebuilds a batch's item listing with local indices 0..len-1,
// replacing each line's leading [N] tag.
func renumber(lines []string, indices []int) string {
	renumbered := make([]string, len(indices))
	for localIdx, originalIdx := range indices {
		line := lines[originalIdx]
		renumbered[localIdx] = itemLinePattern.ReplaceAllString(line, fmt.Sprintf("[%d]", localIdx))
	}
	return strings.Join(renumbered, "\n")
}

func identity(n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
