package paging

// State is the paging state a refresh key is computed from.
type State[T any] struct {
	// Pages are the loaded pages in key order.
	Pages []Page[T]

	// AnchorPosition is the index of the last item the reader looked at,
	// counted over all loaded items. Nil when unknown.
	AnchorPosition *int
}

// ItemCount returns the number of loaded items.
func (s State[T]) ItemCount() int {
	n := 0
	for _, p := range s.Pages {
		n += len(p.Data)
	}
	return n
}

// Items returns all loaded items in order.
func (s State[T]) Items() []T {
	items := make([]T, 0, s.ItemCount())
	for _, p := range s.Pages {
		items = append(items, p.Data...)
	}
	return items
}

// ClosestPage returns the loaded page containing position. Positions before
// the first item map to the first non-empty page, positions past the last
// item to the last non-empty page. It returns nil when no page has data.
func (s State[T]) ClosestPage(position int) *Page[T] {
	first, last := -1, -1
	for i, p := range s.Pages {
		if len(p.Data) == 0 {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return nil
	}

	pageIndex, index := 0, position
	for pageIndex < len(s.Pages)-1 && index > len(s.Pages[pageIndex].Data)-1 {
		index -= len(s.Pages[pageIndex].Data)
		pageIndex++
	}

	switch {
	case index < 0:
		return &s.Pages[first]
	case pageIndex == len(s.Pages)-1 && index > len(s.Pages[pageIndex].Data)-1:
		return &s.Pages[last]
	default:
		return &s.Pages[pageIndex]
	}
}

// RefreshKey infers the page to reload so the anchor stays in view. With a
// known previous key the anchor's own page is prevKey+1, otherwise
// nextKey-1. It returns nil (reload from StartingPage) when nothing can be
// inferred.
func RefreshKey[T any](state State[T]) *int {
	if state.AnchorPosition == nil {
		return nil
	}

	page := state.ClosestPage(*state.AnchorPosition)
	if page == nil {
		return nil
	}

	switch {
	case page.PrevKey != nil:
		key := *page.PrevKey + 1
		return &key
	case page.NextKey != nil:
		key := *page.NextKey - 1
		return &key
	default:
		return nil
	}
}
