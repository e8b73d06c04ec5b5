package langmode

import "sort"

// LayerHighlightIterator walks one layer's precomputed boundary events in
// buffer order, honoring the layer's extent, per §4.4.
type LayerHighlightIterator struct {
	layer       *LanguageLayer
	events      []boundaryEvent
	idx         int
	alreadyOpen []int
}

func newLayerHighlightIterator(layer *LanguageLayer) *LayerHighlightIterator {
	return &LayerHighlightIterator{layer: layer}
}

// Seek loads the boundary events in [start, endRow] and positions the
// iterator at the first one. It returns false if the layer has no
// boundaries in range, so the caller can drop it from the merge.
func (it *LayerHighlightIterator) Seek(start Point, endRow int) bool {
	extent := it.layer.Extent()
	to := Point{Row: endRow + 1, Column: 0}
	if extent.End.IsLessThan(to) {
		to = extent.End
	}
	if extent.Start.IsLessThan(start) == false && start != extent.Start {
		start = extent.Start
	}
	events, alreadyOpen := it.layer.GetSyntaxBoundaries(start, to)
	it.events = events
	it.idx = 0
	it.alreadyOpen = alreadyOpen
	return len(it.events) > 0
}

func (it *LayerHighlightIterator) Position() Point { return it.events[it.idx].Point }
func (it *LayerHighlightIterator) OpenScopeIDs() []int {
	return it.events[it.idx].Open
}
func (it *LayerHighlightIterator) CloseScopeIDs() []int {
	return it.events[it.idx].Close
}
func (it *LayerHighlightIterator) AlreadyOpenScopes() []int { return it.alreadyOpen }
func (it *LayerHighlightIterator) Depth() int               { return it.layer.depth }
func (it *LayerHighlightIterator) Extent() Range            { return it.layer.Extent() }
func (it *LayerHighlightIterator) CoversShallower() bool {
	return it.layer.marker != nil && it.layer.marker.point.CoverShallowerScopes
}

// Advance moves to the next boundary event; it returns false once the
// layer has no more events, at which point the caller removes it from the
// merge.
func (it *LayerHighlightIterator) Advance() bool {
	it.idx++
	return it.idx < len(it.events)
}

// HighlightIterator merges several LayerHighlightIterators into one
// stream in buffer order, per §4.4. Layers are kept sorted so the last
// element is the current winner; moveToSuccessor advances it and
// re-inserts it by priority ("bubbling" it toward its new slot), exactly
// the scheme §9 calls out as an implementation detail of an equivalent
// priority structure.
type HighlightIterator struct {
	mode   *LanguageMode
	layers []*LayerHighlightIterator
}

func newHighlightIterator(mode *LanguageMode) *HighlightIterator {
	return &HighlightIterator{mode: mode}
}

// higherPriority reports whether a should be selected over b at the same
// step, per the ordering contract in §4.4: earlier position first; at
// equal position, an iterator about to close wins over one that only
// opens; otherwise the shallower layer wins.
func higherPriority(a, b *LayerHighlightIterator) bool {
	cmp := ComparePoints(a.Position(), b.Position())
	if cmp != 0 {
		return cmp < 0
	}
	aCloses := len(a.CloseScopeIDs()) > 0
	bCloses := len(b.CloseScopeIDs()) > 0
	if aCloses != bCloses {
		return aCloses
	}
	return a.Depth() < b.Depth()
}

func (h *HighlightIterator) insertSorted(it *LayerHighlightIterator) {
	i := 0
	for i < len(h.layers) && higherPriority(it, h.layers[i]) {
		i++
	}
	h.layers = append(h.layers, nil)
	copy(h.layers[i+1:], h.layers[i:])
	h.layers[i] = it
}

// Seek starts (or restarts) the merged walk at start, covering rows up to
// endRow, across every layer that currently covers the range.
func (h *HighlightIterator) Seek(start Point, endRow int) {
	h.layers = nil
	for _, layer := range h.mode.allLayers() {
		ext := layer.Extent()
		if ext.End.IsLessOrEqual(start) {
			continue
		}
		it := newLayerHighlightIterator(layer)
		if it.Seek(start, endRow) {
			h.insertSorted(it)
		}
	}
}

// Done reports whether the merge has been exhausted.
func (h *HighlightIterator) Done() bool { return len(h.layers) == 0 }

// InitialOpenScopeIds collects the scopes every active layer reports as
// already open at the most recent Seek, shallower layers first so a
// consumer building an open-scope stack sees outer scopes before inner
// ones, matching allLayers' depth-first ordering.
func (h *HighlightIterator) InitialOpenScopeIds() []int {
	sorted := make([]*LayerHighlightIterator, len(h.layers))
	copy(sorted, h.layers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Depth() < sorted[j].Depth() })
	var out []int
	for _, it := range sorted {
		out = append(out, it.AlreadyOpenScopes()...)
	}
	return out
}

func (h *HighlightIterator) leader() *LayerHighlightIterator {
	return h.layers[len(h.layers)-1]
}

// GetPosition returns the current boundary's buffer position.
func (h *HighlightIterator) GetPosition() Point { return h.leader().Position() }

// GetOpenScopeIds and GetCloseScopeIds return the leader's boundary
// scope-id lists, with the cover-shallower-scopes suppression from §4.4
// and §9 applied: if a shallower iterator opted into coverShallowerScopes
// and its range strictly contains the leader's position, the leader's
// lists are suppressed for this step only (no attempt is made to keep the
// opposite boundary balanced; see the open question in SPEC_FULL.md).
func (h *HighlightIterator) GetOpenScopeIds() []int {
	if h.coveredByShallowerLayer() {
		return nil
	}
	return h.leader().OpenScopeIDs()
}

func (h *HighlightIterator) GetCloseScopeIds() []int {
	if h.coveredByShallowerLayer() {
		return nil
	}
	return h.leader().CloseScopeIDs()
}

func (h *HighlightIterator) coveredByShallowerLayer() bool {
	lead := h.leader()
	pos := lead.Position()
	for _, other := range h.layers {
		if other == lead || other.Depth() >= lead.Depth() {
			continue
		}
		if !other.CoversShallower() {
			continue
		}
		ext := other.Extent()
		if ext.Start.IsLessThan(pos) && pos.IsLessThan(ext.End) {
			return true
		}
	}
	return false
}

// MoveToSuccessor advances the leader and re-inserts it in priority
// order, or drops it if it has no further boundaries. It returns false
// once every layer is exhausted.
func (h *HighlightIterator) MoveToSuccessor() bool {
	if len(h.layers) == 0 {
		return false
	}
	last := h.layers[len(h.layers)-1]
	h.layers = h.layers[:len(h.layers)-1]
	if last.Advance() {
		h.insertSorted(last)
	}
	return len(h.layers) > 0
}
