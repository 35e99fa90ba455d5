package index

import "github.com/geoplaces/core/internal/entities"

// SearchPlaces runs the two-pass geographic search over idx: first a
// query scoped to visibleBbox (the "visible" results), then, only if
// fewer than limit came back, a second query over an extended bbox
// excluding the first pass's area (the "invisible" results) to top up
// the page without ever double-counting an item across the two
// passes.
func SearchPlaces(idx PlaceIndex, visibleBbox entities.MapBbox, q Query, limit uint64) (visible, invisible []PlaceResult, err error) {
	first := q
	first.IncludeBbox = &visibleBbox
	first.ExcludeBbox = nil
	first.Limit = limit
	visible, err = idx.Query(first)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(visible)) >= limit {
		return visible, nil, nil
	}

	expanded := entities.ExtendBbox(visibleBbox)
	second := q
	second.IncludeBbox = &expanded
	second.ExcludeBbox = &visibleBbox
	second.Limit = limit - uint64(len(visible))
	invisible, err = idx.Query(second)
	if err != nil {
		return nil, nil, err
	}
	return visible, invisible, nil
}

// SearchEvents is SearchPlaces's counterpart over the event index.
func SearchEvents(idx EventIndex, visibleBbox entities.MapBbox, q Query, limit uint64) (visible, invisible []EventResult, err error) {
	first := q
	first.IncludeBbox = &visibleBbox
	first.ExcludeBbox = nil
	first.Limit = limit
	visible, err = idx.Query(first)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(visible)) >= limit {
		return visible, nil, nil
	}

	expanded := entities.ExtendBbox(visibleBbox)
	second := q
	second.IncludeBbox = &expanded
	second.ExcludeBbox = &visibleBbox
	second.Limit = limit - uint64(len(visible))
	invisible, err = idx.Query(second)
	if err != nil {
		return nil, nil, err
	}
	return visible, invisible, nil
}
