package knowledge

import (
	"sort"

	"rustex/internal/model"
)

// Each hop away from the seed halves the relevance score.
const relatedDecay = 0.5

// RelatedByGraph collects chunks for the elements within maxHops resolved
// references of el, nearest and strongest first. The walk treats references
// as undirected: callers and callees are both useful context. Works without
// an embedder, unlike SearchRelated.
func (e *Engine) RelatedByGraph(el *model.CodeElement, maxHops, limit int) []Chunk {
	if e.project == nil || el == nil || maxHops <= 0 || limit <= 0 {
		return nil
	}

	adj := make(map[string][]string)
	for _, ref := range e.project.References {
		if !ref.IsResolved || ref.ToElementID == nil {
			continue
		}
		adj[ref.FromElementID] = append(adj[ref.FromElementID], *ref.ToElementID)
		adj[*ref.ToElementID] = append(adj[*ref.ToElementID], ref.FromElementID)
	}

	type hop struct {
		id    string
		depth int
	}
	scores := map[string]float64{el.ID: 1}
	depths := map[string]int{el.ID: 0}
	queue := []hop{{id: el.ID}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxHops {
			continue
		}
		for _, next := range adj[cur.id] {
			if score := scores[cur.id] * relatedDecay; score > scores[next] {
				scores[next] = score
			}
			if prev, seen := depths[next]; !seen || cur.depth+1 < prev {
				depths[next] = cur.depth + 1
				queue = append(queue, hop{id: next, depth: cur.depth + 1})
			}
		}
	}

	ids := make([]string, 0, len(depths))
	for id := range depths {
		if id != el.ID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] == scores[ids[j]] {
			return ids[i] < ids[j]
		}
		return scores[ids[i]] > scores[ids[j]]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]Chunk, 0, len(ids))
	for _, id := range ids {
		if other, ok := e.project.Element(id); ok {
			out = append(out, e.ChunkFor(other))
		}
	}
	return out
}
