// Package textindex is an in-process, non-transactional implementation
// of the index.PlaceIndex and index.EventIndex seams: a mutex-guarded
// map of documents, linearly scanned and ranked on every query. It
// trades algorithmic elegance for being trivial to keep in lockstep
// with the sqlite store — there is no pack library offering an
// in-process, transactionally-adjacent geo+text index, so this is
// hand-rolled the way the teacher's gate.Registry hand-rolls its own
// mutex-protected lookup tables rather than reaching for a dependency.
package textindex

import (
	"strings"

	"github.com/geoplaces/core/internal/entities"
)

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func hasAny(haystack []string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	for _, n := range needles {
		for _, h := range haystack {
			if h == n {
				return true
			}
		}
	}
	return false
}

func hasID(ids []entities.Id, id entities.Id) bool {
	if len(ids) == 0 {
		return true
	}
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// textScore counts how many of query's tokens appear in title (weight
// 2) or description (weight 1). A zero score with a non-empty query
// means the document does not match at all.
func textScore(query, title, description string) (float64, bool) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return 0, true
	}
	titleTokens := tokenize(title)
	descTokens := tokenize(description)
	var score float64
	var matched int
	for _, t := range tokens {
		inTitle := contains(titleTokens, t)
		inDesc := contains(descTokens, t)
		if inTitle {
			score += 2
			matched++
		} else if inDesc {
			score++
			matched++
		}
	}
	return score, matched > 0
}

func contains(tokens []string, t string) bool {
	for _, tok := range tokens {
		if tok == t {
			return true
		}
	}
	return false
}
