// Package memory contains concrete SemanticIndex implementations. The index
// interface lives in the core package so real deployments can plug an
// embeddings-backed vector store without touching the orchestration layers.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/noteflow-ai/noteflow/core"
)

// InMemoryIndex is a naive process-local SemanticIndex: documents are stored
// as plain strings and scored by case-insensitive term overlap. Suitable for
// tests and demos; swap in a vector index for production retrieval.
type InMemoryIndex struct {
	mu   sync.RWMutex
	docs []doc
}

type doc struct {
	id      string
	content string
}

// NewInMemoryIndex creates an empty in-memory index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Add stores a document under the given id.
func (m *InMemoryIndex) Add(id, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc{id: id, content: content})
}

// Search implements core.SemanticIndex with term-overlap scoring: the score
// is the fraction of query terms present in the document. Documents with no
// overlapping terms are omitted.
func (m *InMemoryIndex) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 || limit <= 0 {
		return []core.SearchResult{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []core.SearchResult
	for _, d := range m.docs {
		lc := strings.ToLower(d.content)
		hits := 0
		for _, term := range terms {
			if strings.Contains(lc, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		results = append(results, core.SearchResult{
			ID:      d.id,
			Content: d.content,
			Score:   float64(hits) / float64(len(terms)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
