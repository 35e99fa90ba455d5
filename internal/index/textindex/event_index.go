package textindex

import (
	"sort"
	"sync"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/index"
)

// EventIndex is an in-memory index.EventIndex.
type EventIndex struct {
	mu   sync.RWMutex
	docs map[entities.Id]index.EventDoc
}

// NewEventIndex returns an empty event index.
func NewEventIndex() *EventIndex {
	return &EventIndex{docs: make(map[entities.Id]index.EventDoc)}
}

var _ index.EventIndex = (*EventIndex)(nil)

func (idx *EventIndex) AddOrUpdate(doc index.EventDoc) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs[doc.ID] = doc
	return nil
}

func (idx *EventIndex) RemoveByID(id entities.Id) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.docs, id)
	return nil
}

func (idx *EventIndex) FlushIndex() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = make(map[entities.Id]index.EventDoc)
	return nil
}

func (idx *EventIndex) Query(q index.Query) ([]index.EventResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []index.EventResult
	for _, doc := range idx.docs {
		score, ok := idx.matches(doc, q)
		if !ok {
			continue
		}
		out = append(out, index.EventResult{Doc: doc, Score: score})
	}

	hasText := len(tokenize(q.Text)) > 0
	sort.SliceStable(out, func(i, j int) bool {
		if hasText && out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Doc.Start != out[j].Doc.Start {
			return out[i].Doc.Start < out[j].Doc.Start
		}
		return out[i].Doc.ID < out[j].Doc.ID
	})

	if q.Limit > 0 && uint64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (idx *EventIndex) matches(doc index.EventDoc, q index.Query) (float64, bool) {
	if q.IncludeBbox != nil {
		if doc.Pos == nil || !q.IncludeBbox.ContainsPoint(*doc.Pos) {
			return 0, false
		}
	}
	if q.ExcludeBbox != nil && doc.Pos != nil && q.ExcludeBbox.ContainsPoint(*doc.Pos) {
		return 0, false
	}
	if !hasID(q.IDs, doc.ID) {
		return 0, false
	}
	tags := append(append([]string{}, doc.Tags...), index.EventCategory)
	if !hasAny(tags, q.Categories) {
		return 0, false
	}
	if !hasAny(doc.Tags, q.HashTags) {
		return 0, false
	}
	if !hasAny(doc.Tags, q.TextTags) {
		return 0, false
	}
	if q.StartAfter != nil && doc.Start < *q.StartAfter {
		return 0, false
	}
	if q.StartBefore != nil && doc.Start > *q.StartBefore {
		return 0, false
	}
	if q.EndAfter != nil && (doc.End == nil || *doc.End < *q.EndAfter) {
		return 0, false
	}
	if q.EndBefore != nil && (doc.End == nil || *doc.End > *q.EndBefore) {
		return 0, false
	}
	if q.Text == "" {
		return 0, true
	}
	score, ok := textScore(q.Text, doc.Title, doc.Description)
	return score, ok
}
