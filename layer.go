package langmode

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// Edit mirrors the tree-sitter edit descriptor built by
// LanguageMode.BufferDidChange: byte indices plus row/column points for
// both the old and new span, per §4.1.
type Edit struct {
	StartIndex     int
	OldEndIndex    int
	NewEndIndex    int
	StartPosition  Point
	OldEndPosition Point
	NewEndPosition Point
}

func (e Edit) toTS() sitter.EditInput {
	return sitter.EditInput{
		StartIndex:  uint32(e.StartIndex),
		OldEndIndex: uint32(e.OldEndIndex),
		NewEndIndex: uint32(e.NewEndIndex),
		StartPoint:  e.StartPosition.toTS(),
		OldEndPoint: e.OldEndPosition.toTS(),
		NewEndPoint: e.NewEndPosition.toTS(),
	}
}

// injectionMarker records the buffer range of an injected layer's content
// as found by the last parse; edits do not shift that range, and a content
// range that has moved gets a new marker at the next update. Ownership
// flows one way, parent -> child;
// the back-reference is a plain field, not shared ownership, since a
// destroyed parent always destroys its children first (§3).
type injectionMarker struct {
	layerRange Range
	point      InjectionPoint
	child      *LanguageLayer
	parent     *LanguageLayer
}

// LanguageLayer owns one parse tree for one grammar over one buffer
// region, per §4.2.
type LanguageLayer struct {
	languageMode *LanguageMode
	grammar      Grammar
	depth        int
	marker       *injectionMarker // nil for the root layer

	tree        *sitter.Tree
	editedRange *Range

	currentNodeRangeSet *NodeRangeSet

	languageScopeID int
	scopeResolver   ScopeResolver
	foldResolver    *FoldResolver

	queries       map[QueryKind]*sitter.Query
	queryAttempts map[QueryKind]bool

	injections []*injectionMarker
	destroyed  bool
}

func newLanguageLayer(mode *LanguageMode, grammar Grammar, depth int, marker *injectionMarker) *LanguageLayer {
	layer := &LanguageLayer{
		languageMode:  mode,
		grammar:       grammar,
		depth:         depth,
		marker:        marker,
		scopeResolver: newScopeResolver(),
		queries:       make(map[QueryKind]*sitter.Query),
		queryAttempts: make(map[QueryKind]bool),
	}
	layer.foldResolver = newFoldResolver(layer)
	layer.languageScopeID = mode.GetOrCreateScopeID(grammar.ScopeName())
	return layer
}

// Extent returns the buffer range this layer is responsible for: the
// whole buffer for the root, the marker's range otherwise.
func (l *LanguageLayer) Extent() Range {
	if l.marker == nil {
		return l.languageMode.buffer.GetRange()
	}
	return l.marker.layerRange
}

func (l *LanguageLayer) parentScopeID() int {
	if l.marker == nil || l.marker.parent == nil {
		return -1
	}
	return l.marker.parent.languageScopeID
}

// getQuery lazily loads and caches one query kind. A load failure is
// recorded once and the query is treated as permanently absent for this
// layer, per §7.
func (l *LanguageLayer) getQuery(kind QueryKind) (*sitter.Query, error) {
	if q, ok := l.queries[kind]; ok {
		return q, nil
	}
	if l.queryAttempts[kind] {
		return nil, nil
	}
	l.queryAttempts[kind] = true

	q, err := l.grammar.LoadQuery(kind)
	if err != nil {
		l.languageMode.logf("query load failed for %s (kind %d): %v", l.grammar.ScopeName(), kind, err)
		return nil, nil
	}
	if q != nil {
		l.queries[kind] = q
	}
	return q, nil
}

// HandleTextChange applies edit to the layer's tree (if any), drops the
// cached folds and widens editedRange. It never reparses; per §5, reparse
// happens only at bufferDidFinishTransaction.
func (l *LanguageLayer) HandleTextChange(edit Edit) {
	if l.destroyed {
		return
	}
	if l.tree != nil {
		l.tree.Edit(edit.toTS())
	}
	l.foldResolver.Invalidate()
	newSpan := Range{Start: edit.StartPosition, End: edit.NewEndPosition}
	if l.editedRange == nil {
		r := newSpan
		l.editedRange = &r
	} else {
		l.editedRange = &Range{
			Start: minPoint(l.editedRange.Start, newSpan.Start),
			End:   maxPoint(l.editedRange.End, newSpan.End),
		}
	}
}

// Update implements §4.2 steps 1-7. The scheduling model is single
// threaded and cooperative (§5): there is no actual future/promise type
// here, updates simply recurse synchronously into child layers the way
// the reference's awaited promise tree would resolve in order anyway.
func (l *LanguageLayer) Update(nodeRangeSet *NodeRangeSet) error {
	if l.destroyed {
		return nil
	}

	language, err := l.grammar.Language()
	if err != nil || language == nil {
		return nil // missing language binary: inert until it resolves (§7)
	}

	var includedRanges []TSRange
	if nodeRangeSet != nil {
		includedRanges = nodeRangeSet.GetRanges(l.languageMode.buffer)
		if includedRanges == nil {
			l.destroy()
			return nil
		}
	}
	l.currentNodeRangeSet = nodeRangeSet

	parser := l.languageMode.parserFor(l.grammar)
	parser.SetLanguage(language)
	if len(includedRanges) > 0 {
		tsRanges := make([]sitter.Range, len(includedRanges))
		for i, r := range includedRanges {
			tsRanges[i] = r.toTS()
		}
		parser.SetIncludedRanges(tsRanges)
	} else {
		parser.SetIncludedRanges(nil)
	}

	source := []byte(l.languageMode.buffer.GetText())
	oldTree := l.tree
	newTree, err := parser.ParseCtx(context.Background(), oldTree, source)
	if err != nil || newTree == nil {
		return fmt.Errorf("parse failed for %s: %w", l.grammar.ScopeName(), err)
	}

	var affected Range
	if oldTree != nil {
		changed := oldTree.ChangedRanges(newTree)
		for _, cr := range changed {
			r := Range{Start: pointFromTS(cr.StartPoint), End: pointFromTS(cr.EndPoint)}
			l.languageMode.emitInvalidation(r)
			affected = unionRange(affected, r)
		}
		if l.editedRange != nil {
			affected = unionRange(affected, *l.editedRange)
		}
	} else {
		affected = l.Extent()
	}

	l.tree = newTree
	l.editedRange = nil
	l.foldResolver.Invalidate()
	l.scopeResolver.Reset()

	return l.populateInjections(affected, nodeRangeSet)
}

func unionRange(a, b Range) Range {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	return Range{Start: minPoint(a.Start, b.Start), End: maxPoint(a.End, b.End)}
}

// populateInjections implements §4.2's _populateInjections.
func (l *LanguageLayer) populateInjections(affected Range, parentNodeRangeSet *NodeRangeSet) error {
	if l.tree == nil {
		return nil
	}
	points := l.grammar.InjectionPoints()
	if len(points) == 0 {
		return nil
	}

	rng := affected
	visited := make(map[*injectionMarker]bool)
	for _, m := range l.injections {
		if m.layerRange.Intersects(rng) {
			rng = unionRange(rng, m.layerRange)
		}
	}

	typesByName := make(map[string][]InjectionPoint)
	for _, ip := range points {
		typesByName[ip.Type] = append(typesByName[ip.Type], ip)
	}

	root := l.tree.RootNode()
	candidates := collectNodesOfTypes(root, typesByName, rng)

	source := []byte(l.languageMode.buffer.GetText())
	var newMarkers []*injectionMarker

	for _, node := range candidates {
		nodeType := node.Type()
		for _, ip := range typesByName[nodeType] {
			langTag := ip.Language(node, source)
			if langTag == "" {
				continue
			}
			childGrammar := l.languageMode.grammarRegistry.Lookup(langTag)
			if childGrammar == nil {
				continue // missing injection grammar: skip silently (§7)
			}
			contentNodes := ip.Content(node)
			if len(contentNodes) == 0 {
				continue
			}

			contentRange := Range{
				Start: pointFromTS(contentNodes[0].StartPoint()),
				End:   pointFromTS(contentNodes[len(contentNodes)-1].EndPoint()),
			}

			marker := l.findOrCreateMarker(contentRange, ip, childGrammar)

			childRangeSet := NewNodeRangeSet(parentNodeRangeSet, contentNodes, ip.NewlinesBetween, ip.IncludeChildren)
			if err := marker.child.Update(childRangeSet); err != nil {
				l.languageMode.logf("injection update failed: %v", err)
			}
			visited[marker] = true
			if marker.child.destroyed {
				// The injection's range resolved to nothing this round (e.g. an
				// empty included-range set). Emit the invalidation for it and
				// drop the marker instead of keeping it around: a future
				// rediscovery of this range builds a fresh layer rather than
				// reviving a dead one.
				l.languageMode.emitInvalidation(marker.layerRange)
				continue
			}
			newMarkers = append(newMarkers, marker)
		}
	}

	for _, old := range l.injections {
		if !visited[old] {
			l.languageMode.emitInvalidation(old.layerRange)
			old.child.destroy()
		}
	}
	l.injections = newMarkers
	return nil
}

// findOrCreateMarker reuses an existing marker covering the same range and
// child grammar, unless its child was already destroyed: a destroyed layer
// never comes back to life, so rediscovering its range builds a fresh one.
func (l *LanguageLayer) findOrCreateMarker(r Range, ip InjectionPoint, grammar Grammar) *injectionMarker {
	for _, m := range l.injections {
		if m.layerRange == r && m.child.grammar.ScopeName() == grammar.ScopeName() && !m.child.destroyed {
			m.layerRange = r
			return m
		}
	}
	marker := &injectionMarker{layerRange: r, point: ip, parent: l}
	child := newLanguageLayer(l.languageMode, grammar, l.depth+1, marker)
	marker.child = child
	return marker
}

func collectNodesOfTypes(root *sitter.Node, typesByName map[string][]InjectionPoint, r Range) []*sitter.Node {
	var out []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		start := pointFromTS(n.StartPoint())
		end := pointFromTS(n.EndPoint())
		if end.IsLessThan(r.Start) || r.End.IsLessThan(start) {
			return
		}
		if _, ok := typesByName[n.Type()]; ok {
			out = append(out, n)
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

func (l *LanguageLayer) destroy() {
	if l.destroyed {
		return
	}
	l.destroyed = true
	for _, m := range l.injections {
		m.child.destroy()
	}
	l.injections = nil
}

// GetSyntaxBoundaries implements §4.2's getSyntaxBoundaries: runs the
// syntax query over [from, to), resolves captures into boundary events,
// adds the layer's own open/close scope at its extent edges when its
// language differs from its parent's, and replays everything up to from
// to compute the set of scopes already open on entry.
func (l *LanguageLayer) GetSyntaxBoundaries(from, to Point) ([]boundaryEvent, []int) {
	if l.destroyed || l.tree == nil {
		return nil, nil
	}
	query, _ := l.getQuery(QuerySyntax)
	source := []byte(l.languageMode.buffer.GetText())

	l.scopeResolver.Reset()
	if query != nil {
		captures := runQuery(query, l.tree.RootNode(), from, to, source)
		for _, c := range captures {
			l.scopeResolver.Store(l.languageMode, c, 0)
		}
	}

	extent := l.Extent()
	if l.languageScopeID != l.parentScopeID() {
		l.scopeResolver.SetBoundary(extent.Start, l.languageScopeID, true)
		l.scopeResolver.SetBoundary(extent.End, l.languageScopeID, false)
	}

	events := l.scopeResolver.Boundaries()

	var alreadyOpen []int
	openSet := make(map[int]bool)
	var inRange []boundaryEvent
	for _, ev := range events {
		if ev.Point.IsLessThan(from) {
			for _, id := range ev.Open {
				openSet[id] = true
			}
			for _, id := range ev.Close {
				delete(openSet, id)
			}
			continue
		}
		inRange = append(inRange, ev)
	}
	for id := range openSet {
		alreadyOpen = append(alreadyOpen, id)
	}
	sort.Ints(alreadyOpen)
	return inRange, alreadyOpen
}

// ScopeMapAtPosition runs the syntax query over [point, point+1 column) and
// returns every capture whose (possibly adjusted) range contains point
// (start <= point < end), sorted biggest-to-smallest.
func (l *LanguageLayer) ScopeMapAtPosition(point Point) []Capture {
	if l.destroyed || l.tree == nil {
		return nil
	}
	query, _ := l.getQuery(QuerySyntax)
	if query == nil {
		return nil
	}
	source := []byte(l.languageMode.buffer.GetText())
	to := Point{Row: point.Row, Column: point.Column + 1}
	captures := runQuery(query, l.tree.RootNode(), point, to, source)

	var out []Capture
	var ranges []Range
	for _, c := range captures {
		r, ok := l.scopeResolver.Store(l.languageMode, c, l.languageMode.GetOrCreateScopeID(c.Name))
		if !ok {
			continue
		}
		if r.Start.IsLessOrEqual(point) && point.IsLessThan(r.End) {
			out = append(out, c)
			ranges = append(ranges, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rangeSize(ranges[i]) > rangeSize(ranges[j])
	})
	return out
}

func rangeSize(r Range) int {
	return (r.End.Row-r.Start.Row)*100000 + (r.End.Column - r.Start.Column)
}

// GetLocalReferencesAtPoint returns every local.reference capture whose
// range contains point, deepest first.
func (l *LanguageLayer) GetLocalReferencesAtPoint(point Point) []Capture {
	caps := l.localsCapturesNear(point)
	var refs []Capture
	var ranges []Range
	for _, c := range caps {
		if c.Name != "local.reference" {
			continue
		}
		r := Range{Start: pointFromTS(c.Node.StartPoint()), End: pointFromTS(c.Node.EndPoint())}
		if r.ContainsPoint(point) {
			refs = append(refs, c)
			ranges = append(ranges, r)
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return rangeSize(ranges[i]) < rangeSize(ranges[j])
	})
	return refs
}

func (l *LanguageLayer) localsCapturesNear(point Point) []Capture {
	if l.destroyed || l.tree == nil {
		return nil
	}
	query, _ := l.getQuery(QueryLocals)
	if query == nil {
		return nil
	}
	source := []byte(l.languageMode.buffer.GetText())
	to := Point{Row: point.Row, Column: point.Column + 1}
	return runQuery(query, l.tree.RootNode(), point, to, source)
}

// FindDefinitionForLocalReference implements §4.2's scope-walking
// algorithm: partition the locals captures into scopes/definitions/
// references, bucket relevant definitions by their smallest containing
// scope, and walk outward preferring the latest pre-reference definition,
// falling back to the earliest post-reference one.
func (l *LanguageLayer) FindDefinitionForLocalReference(ref *sitter.Node) *sitter.Node {
	if l.tree == nil {
		return nil
	}
	query, _ := l.getQuery(QueryLocals)
	if query == nil {
		return nil
	}
	source := []byte(l.languageMode.buffer.GetText())
	all := runQuery(query, l.tree.RootNode(), l.Extent().Start, l.Extent().End, source)

	refRange := Range{Start: pointFromTS(ref.StartPoint()), End: pointFromTS(ref.EndPoint())}
	refText := ref.Content(source)

	var scopes []Range
	type def struct {
		node *sitter.Node
		text string
	}
	var defs []def

	for _, c := range all {
		r := Range{Start: pointFromTS(c.Node.StartPoint()), End: pointFromTS(c.Node.EndPoint())}
		switch c.Name {
		case "local.scope":
			scopes = append(scopes, r)
		case "local.definition":
			defs = append(defs, def{node: c.Node, text: c.Node.Content(source)})
		}
	}

	var relevant []Range
	for _, s := range scopes {
		if s.ContainsRange(refRange) {
			relevant = append(relevant, s)
		}
	}
	sort.Slice(relevant, func(i, j int) bool { return rangeSize(relevant[i]) < rangeSize(relevant[j]) })
	relevant = append(relevant, l.Extent())

	smallestScope := func(r Range) Range {
		best := l.Extent()
		for _, s := range scopes {
			if s.ContainsRange(r) && rangeSize(s) < rangeSize(best) {
				best = s
			}
		}
		return best
	}

	var fallback *sitter.Node
	for _, scope := range relevant {
		var bucket []def
		for _, d := range defs {
			if d.text != refText {
				continue
			}
			dr := Range{Start: pointFromTS(d.node.StartPoint()), End: pointFromTS(d.node.EndPoint())}
			if smallestScope(dr) == scope {
				bucket = append(bucket, d)
			}
		}
		var latestBefore *sitter.Node
		var latestBeforeStart Point
		for _, d := range bucket {
			dStart := pointFromTS(d.node.StartPoint())
			if dStart.IsLessThan(refRange.Start) {
				if latestBefore == nil || latestBeforeStart.IsLessThan(dStart) {
					latestBefore = d.node
					latestBeforeStart = dStart
				}
			} else if fallback == nil {
				fallback = d.node
			}
		}
		if latestBefore != nil {
			return latestBefore
		}
	}
	return fallback
}

// AllLocalDefinitions returns every local.definition capture in this
// layer's extent, for building a jump-to-definition index.
func (l *LanguageLayer) AllLocalDefinitions() []Capture {
	if l.destroyed || l.tree == nil {
		return nil
	}
	query, _ := l.getQuery(QueryLocals)
	if query == nil {
		return nil
	}
	source := []byte(l.languageMode.buffer.GetText())
	all := runQuery(query, l.tree.RootNode(), l.Extent().Start, l.Extent().End, source)
	var out []Capture
	for _, c := range all {
		if c.Name == "local.definition" {
			out = append(out, c)
		}
	}
	return out
}

// ForceAnonymousParse synchronously reparses using the cached
// currentNodeRangeSet, for just-in-time indent computation between
// transactions (§5).
func (l *LanguageLayer) ForceAnonymousParse() {
	if l.destroyed {
		return
	}
	language, err := l.grammar.Language()
	if err != nil || language == nil {
		return
	}
	parser := l.languageMode.parserFor(l.grammar)
	parser.SetLanguage(language)
	if l.currentNodeRangeSet != nil {
		ranges := l.currentNodeRangeSet.GetRanges(l.languageMode.buffer)
		tsRanges := make([]sitter.Range, len(ranges))
		for i, r := range ranges {
			tsRanges[i] = r.toTS()
		}
		parser.SetIncludedRanges(tsRanges)
	} else {
		parser.SetIncludedRanges(nil)
	}
	source := []byte(l.languageMode.buffer.GetText())
	newTree, err := parser.ParseCtx(context.Background(), l.tree, source)
	if err == nil && newTree != nil {
		l.tree = newTree
	}
}
