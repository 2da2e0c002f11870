// Package duplicates finds distinct enrollments that look like the same
// person. The check-in flow only matches against present visitors, so the
// same face enrolled on different days accumulates separate records; this
// package surfaces those groups for operator review.
package duplicates

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/i-m-alive/Visitor-Log-Book/internal/facematch"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
)

const maxNeighbors = 16

// Group is a set of records believed to belong to one person, ordered by
// ascending record ID.
type Group struct {
	RecordIDs []int64  `json:"record_ids"`
	FaceIDs   []string `json:"face_ids"`
	Name      string   `json:"name"` // name on the earliest record
}

// Index answers approximate nearest-neighbor queries over all enrollments.
type Index struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[int64]
	visitors map[int64]*registry.Visitor
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{visitors: make(map[int64]*registry.Visitor)}
}

// Build replaces the index contents with the given records.
func (ix *Index) Build(visitors []registry.Visitor) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(visitors) == 0 {
		ix.graph = nil
		ix.visitors = make(map[int64]*registry.Visitor)
		return nil
	}

	g := hnsw.NewGraph[int64]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.CosineDistance

	ix.visitors = make(map[int64]*registry.Visitor, len(visitors))
	for i := range visitors {
		v := &visitors[i]
		if len(v.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(v.ID, v.Embedding))
		ix.visitors[v.ID] = v
	}

	ix.graph = g
	return nil
}

// Groups returns all duplicate groups: connected components of records
// whose pairwise similarity reaches the threshold. Candidate pairs come
// from the approximate index and are confirmed with the exact similarity
// before linking.
func (ix *Index) Groups(threshold float64, neighbors int) ([]Group, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil || len(ix.visitors) < 2 {
		return nil, nil
	}
	if neighbors <= 0 {
		neighbors = 5
	}

	parent := make(map[int64]int64, len(ix.visitors))
	for id := range ix.visitors {
		parent[id] = id
	}
	var find func(int64) int64
	find = func(id int64) int64 {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	union := func(a, b int64) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for id, v := range ix.visitors {
		// +1 because the query vector's own node comes back first.
		nodes := ix.graph.Search(v.Embedding, neighbors+1)
		for _, n := range nodes {
			if n.Key == id {
				continue
			}
			other, ok := ix.visitors[n.Key]
			if !ok {
				continue
			}
			score, err := facematch.Similarity(v.Embedding, other.Embedding)
			if err != nil {
				return nil, fmt.Errorf("compare records %d and %d: %w", id, n.Key, err)
			}
			if score >= threshold {
				union(id, n.Key)
			}
		}
	}

	members := make(map[int64][]int64)
	for id := range ix.visitors {
		root := find(id)
		members[root] = append(members[root], id)
	}

	var groups []Group
	for _, ids := range members {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		g := Group{RecordIDs: ids, Name: ix.visitors[ids[0]].Name}
		for _, id := range ids {
			g.FaceIDs = append(g.FaceIDs, ix.visitors[id].FaceID)
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].RecordIDs[0] < groups[j].RecordIDs[0] })
	return groups, nil
}

// Count returns the number of indexed records.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.visitors)
}
