package textindex

import (
	"sort"
	"sync"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/index"
)

// PlaceIndex is an in-memory index.PlaceIndex.
type PlaceIndex struct {
	mu   sync.RWMutex
	docs map[entities.Id]index.PlaceDoc
}

// NewPlaceIndex returns an empty place index.
func NewPlaceIndex() *PlaceIndex {
	return &PlaceIndex{docs: make(map[entities.Id]index.PlaceDoc)}
}

var _ index.PlaceIndex = (*PlaceIndex)(nil)

func (idx *PlaceIndex) AddOrUpdate(doc index.PlaceDoc) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs[doc.ID] = doc
	return nil
}

func (idx *PlaceIndex) RemoveByID(id entities.Id) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.docs, id)
	return nil
}

func (idx *PlaceIndex) FlushIndex() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = make(map[entities.Id]index.PlaceDoc)
	return nil
}

func (idx *PlaceIndex) Query(q index.Query) ([]index.PlaceResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []index.PlaceResult
	for _, doc := range idx.docs {
		score, ok := idx.matches(doc, q)
		if !ok {
			continue
		}
		out = append(out, index.PlaceResult{Doc: doc, Score: score})
	}

	hasText := len(tokenize(q.Text)) > 0
	sort.SliceStable(out, func(i, j int) bool {
		if hasText && out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ti, tj := out[i].Doc.Ratings.Total(), out[j].Doc.Ratings.Total()
		if ti != tj {
			return ti > tj
		}
		return out[i].Doc.ID < out[j].Doc.ID
	})

	if q.Limit > 0 && uint64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (idx *PlaceIndex) matches(doc index.PlaceDoc, q index.Query) (float64, bool) {
	if !q.Status.Matches(doc.Status) {
		return 0, false
	}
	if q.IncludeBbox != nil && !q.IncludeBbox.ContainsPoint(doc.Pos) {
		return 0, false
	}
	if q.ExcludeBbox != nil && q.ExcludeBbox.ContainsPoint(doc.Pos) {
		return 0, false
	}
	if !hasID(q.IDs, doc.ID) {
		return 0, false
	}
	if !hasAny(doc.Tags, q.Categories) {
		return 0, false
	}
	if !hasAny(doc.Tags, q.HashTags) {
		return 0, false
	}
	if !hasAny(doc.Tags, q.TextTags) {
		return 0, false
	}
	if q.Text == "" {
		return 0, true
	}
	score, ok := textScore(q.Text, doc.Title, doc.Description)
	return score, ok
}
