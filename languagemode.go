package langmode

import (
	"log"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// GrammarRegistry is the external collaborator described in §6: it maps a
// language tag to a compiled Grammar bundle.
type GrammarRegistry interface {
	Lookup(languageTag string) Grammar
}

// ConfigStore backs the comment-delimiter fallback in commentStringsForPosition
// when no covering grammar declares its own commentStrings.
type ConfigStore interface {
	CommentStartForScope(scopeDescriptor []string) (string, bool)
	CommentEndForScope(scopeDescriptor []string) (string, bool)
}

const varScopeName = "variable"

// VarID is the fixed scope-id reserved for the synthetic "variable" scope,
// per §3.
const VarID = 257

const firstScopeID = 259

// LanguageMode is the top-level façade of §4.1: it owns the root layer,
// routes buffer-change events, answers scope/fold/indent/comment queries,
// and interns scope names to ids.
type LanguageMode struct {
	buffer          Buffer
	grammarRegistry GrammarRegistry
	config          ConfigStore
	tabLength       int

	rootLayer *LanguageLayer

	nameToID map[string]int
	idToName map[int]string
	nextID   int

	parsers map[string]*sitter.Parser

	foldableCache map[int]bool

	onInvalidate func(Range)
	onTokenize   func()
	tokenized    bool

	logger *log.Logger
}

// NewLanguageMode constructs a LanguageMode rooted at grammar over buffer.
// registry resolves injection grammars; config is consulted only when a
// covering grammar has no commentStrings of its own. Either may be nil.
func NewLanguageMode(buffer Buffer, grammar Grammar, registry GrammarRegistry, config ConfigStore) *LanguageMode {
	mode := &LanguageMode{
		buffer:          buffer,
		grammarRegistry: registry,
		config:          config,
		tabLength:       2,
		nameToID:        make(map[string]int),
		idToName:        make(map[int]string),
		nextID:          firstScopeID,
		parsers:         make(map[string]*sitter.Parser),
		foldableCache:   make(map[int]bool),
		logger:          log.Default(),
	}
	mode.nameToID[varScopeName] = VarID
	mode.idToName[VarID] = varScopeName
	mode.rootLayer = newLanguageLayer(mode, grammar, 0, nil)
	return mode
}

// OnInvalidation registers the did-change-highlighting sink; OnTokenize
// registers the one-shot did-tokenize sink. Both are optional.
func (m *LanguageMode) OnInvalidation(fn func(Range)) { m.onInvalidate = fn }
func (m *LanguageMode) OnTokenize(fn func())          { m.onTokenize = fn }

func (m *LanguageMode) logf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}

func (m *LanguageMode) emitInvalidation(r Range) {
	if m.onInvalidate != nil {
		m.onInvalidate(r)
	}
}

// GetOrCreateScopeID interns name, assigning ids in steps of 2 above the
// fixed base, per §3.
func (m *LanguageMode) GetOrCreateScopeID(name string) int {
	if id, ok := m.nameToID[name]; ok {
		return id
	}
	id := m.nextID
	m.nextID += 2
	m.nameToID[name] = id
	m.idToName[id] = name
	return id
}

// ScopeNameForScopeId and ClassNameForScopeId implement the scope-id
// bijection (§4.1, §8 property 1). ClassNameForScopeId returns the scope
// name prefixed with "syntax--", dots left in place, or "" for an unknown
// id.
func (m *LanguageMode) ScopeNameForScopeId(id int) string { return m.idToName[id] }

func (m *LanguageMode) ClassNameForScopeId(id int) string {
	name, ok := m.idToName[id]
	if !ok {
		return ""
	}
	return "syntax--" + name
}

func (m *LanguageMode) parserFor(grammar Grammar) *sitter.Parser {
	key := grammar.ScopeName()
	if p, ok := m.parsers[key]; ok {
		return p
	}
	p := sitter.NewParser()
	m.parsers[key] = p
	return p
}

// allLayers returns the root layer and every live injection layer,
// depth-first.
func (m *LanguageMode) allLayers() []*LanguageLayer {
	var out []*LanguageLayer
	var walk func(l *LanguageLayer)
	walk = func(l *LanguageLayer) {
		if l == nil || l.destroyed {
			return
		}
		out = append(out, l)
		for _, marker := range l.injections {
			walk(marker.child)
		}
	}
	walk(m.rootLayer)
	return out
}

// BufferDidChange implements §4.1's bufferDidChange: build the edit
// descriptor and forward it to every live layer, without reparsing.
func (m *LanguageMode) BufferDidChange(change BufferChange) {
	startIndex := m.buffer.CharacterIndexForPosition(change.NewRange.Start)
	edit := Edit{
		StartIndex:     startIndex,
		OldEndIndex:    startIndex + len(change.OldText),
		NewEndIndex:    startIndex + len(change.NewText),
		StartPosition:  change.NewRange.Start,
		OldEndPosition: change.OldRange.End,
		NewEndPosition: change.NewRange.End,
	}
	for _, layer := range m.allLayers() {
		layer.HandleTextChange(edit)
	}
}

// BufferDidFinishTransaction implements §4.1: splice the foldable-row
// cache for each change, then reparse the root layer (which recursively
// updates injections).
func (m *LanguageMode) BufferDidFinishTransaction(tx BufferTransaction) error {
	for _, change := range tx.Changes {
		oldSpan := change.OldRange.End.Row - change.OldRange.Start.Row
		newSpan := change.NewRange.End.Row - change.NewRange.Start.Row
		spliceFoldableCache(m.foldableCache, change.OldRange.Start.Row, oldSpan, newSpan)
	}
	if err := m.rootLayer.Update(nil); err != nil {
		return err
	}
	if !m.tokenized {
		m.tokenized = true
		if m.onTokenize != nil {
			m.onTokenize()
		}
	}
	return nil
}

func spliceFoldableCache(cache map[int]bool, startRow, oldSpan, newSpan int) {
	if oldSpan == newSpan {
		for r := startRow; r < startRow+oldSpan; r++ {
			delete(cache, r)
		}
		return
	}
	shifted := make(map[int]bool, len(cache))
	delta := newSpan - oldSpan
	for row, val := range cache {
		switch {
		case row < startRow:
			shifted[row] = val
		case row >= startRow+oldSpan:
			shifted[row+delta] = val
		default:
			// inside the replaced span: drop, recomputed lazily
		}
	}
	for r := startRow; r < startRow+newSpan; r++ {
		delete(shifted, r)
	}
	for k := range cache {
		delete(cache, k)
	}
	for k, v := range shifted {
		cache[k] = v
	}
}

// BuildHighlightIterator returns a HighlightIterator bound to this mode.
func (m *LanguageMode) BuildHighlightIterator() *HighlightIterator {
	return newHighlightIterator(m)
}

// layersCoveringPoint returns every live layer whose extent contains
// point, ordered shallowest first.
func (m *LanguageMode) layersCoveringPoint(point Point) []*LanguageLayer {
	var out []*LanguageLayer
	for _, l := range m.allLayers() {
		if l.Extent().ContainsPoint(point) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].depth < out[j].depth })
	return out
}

// ScopeDescriptorForPosition implements §4.1: the ordered scope-name stack
// covering the clipped, normalized point, outermost first.
func (m *LanguageMode) ScopeDescriptorForPosition(point Point) []string {
	point = normalizePointForPositionQuery(m.buffer, point)
	var names []string
	for _, layer := range m.layersCoveringPoint(point) {
		names = append(names, layer.grammar.ScopeName())
		caps := layer.ScopeMapAtPosition(point)
		for _, c := range caps {
			names = append(names, c.Name)
		}
	}
	return names
}

type nodeDescriptor struct {
	node  *sitter.Node
	depth int
}

// SyntaxTreeScopeDescriptorForPosition implements §4.1: node type names
// from root grammar down to the smallest descendant at point, aggregated
// across all covering layers and sorted (startIndex asc, endIndex desc,
// depth asc).
func (m *LanguageMode) SyntaxTreeScopeDescriptorForPosition(point Point) []string {
	point = normalizePointForPositionQuery(m.buffer, point)
	var descriptors []nodeDescriptor
	for _, layer := range m.layersCoveringPoint(point) {
		if layer.tree == nil {
			continue
		}
		node := layer.tree.RootNode().NamedDescendantForPointRange(point.toTS(), point.toTS())
		for node != nil {
			descriptors = append(descriptors, nodeDescriptor{node: node, depth: layer.depth})
			node = node.Parent()
		}
	}
	sort.SliceStable(descriptors, func(i, j int) bool {
		a, b := descriptors[i].node, descriptors[j].node
		if a.StartByte() != b.StartByte() {
			return a.StartByte() < b.StartByte()
		}
		if a.EndByte() != b.EndByte() {
			return a.EndByte() > b.EndByte()
		}
		return descriptors[i].depth < descriptors[j].depth
	})
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if d.node.IsNamed() {
			out = append(out, d.node.Type())
		} else {
			out = append(out, "\""+d.node.Type()+"\"")
		}
	}
	return out
}

// ScopeSelector matches a dotted scope name, e.g. via suffix/prefix rules
// a real selector compiler would implement; here it is a predicate over
// the full scope name, kept intentionally small since selector parsing
// itself is out of this core's scope (§1).
type ScopeSelector func(scopeName string) bool

// BufferRangeForScopeAtPosition implements §4.1: the smallest range among
// all captures covering point whose scope name matches selector.
func (m *LanguageMode) BufferRangeForScopeAtPosition(selector ScopeSelector, point Point) (Range, bool) {
	point = normalizePointForPositionQuery(m.buffer, point)
	var best Range
	found := false
	for _, layer := range m.layersCoveringPoint(point) {
		caps := layer.ScopeMapAtPosition(point)
		for _, c := range caps {
			if !selector(c.Name) {
				continue
			}
			r := Range{Start: pointFromTS(c.Node.StartPoint()), End: pointFromTS(c.Node.EndPoint())}
			if !found || rangeSize(r) < rangeSize(best) {
				best = r
				found = true
			}
		}
	}
	return best, found
}

// NodePredicate filters candidate nodes for GetSyntaxNodeContainingRange
// and GetSyntaxNodeAtPosition.
type NodePredicate func(node *sitter.Node, grammar Grammar) bool

// GetSyntaxNodeContainingRange implements §4.1: the smallest node across
// all covering layers that strictly contains r and passes predicate;
// ordering is smaller node first, deeper layer breaks ties.
func (m *LanguageMode) GetSyntaxNodeContainingRange(r Range, predicate NodePredicate) *sitter.Node {
	var best *sitter.Node
	var bestRange Range
	var bestDepth int
	haveBest := false
	for _, layer := range m.allLayers() {
		if layer.tree == nil || !layer.Extent().ContainsRange(r) {
			continue
		}
		node := layer.tree.RootNode().NamedDescendantForPointRange(r.Start.toTS(), r.End.toTS())
		for node != nil {
			nr := Range{Start: pointFromTS(node.StartPoint()), End: pointFromTS(node.EndPoint())}
			if nr.ContainsRange(r) && nr != r && (predicate == nil || predicate(node, layer.grammar)) {
				if !haveBest || rangeSize(nr) < rangeSize(bestRange) ||
					(rangeSize(nr) == rangeSize(bestRange) && layer.depth > bestDepth) {
					best, bestRange, bestDepth, haveBest = node, nr, layer.depth, true
				}
				break
			}
			node = node.Parent()
		}
	}
	return best
}

// GetSyntaxNodeAtPosition implements §4.1 for a single point.
func (m *LanguageMode) GetSyntaxNodeAtPosition(point Point, predicate NodePredicate) *sitter.Node {
	return m.GetSyntaxNodeContainingRange(Range{Start: point, End: point}, predicate)
}

// GetFoldableRangeContainingPoint implements §4.1.
func (m *LanguageMode) GetFoldableRangeContainingPoint(point Point) (Fold, bool) {
	return m.getFoldRangeForRow(point.Row)
}

func (m *LanguageMode) getFoldRangeForRow(row int) (Fold, bool) {
	for _, layer := range m.allLayers() {
		if f, ok := layer.foldResolver.FoldRangeForRow(row); ok {
			return f, true
		}
	}
	return Fold{}, false
}

// GetFoldableRanges implements §4.1: all fold ranges across all layers.
// §9's "getFoldableRanges shadowing bug" open question is resolved here by
// accumulating into a single slice; see the Open Questions entry in
// DESIGN.md.
func (m *LanguageMode) GetFoldableRanges() []Fold {
	var all []Fold
	for _, layer := range m.allLayers() {
		all = append(all, layer.foldResolver.AllFolds()...)
	}
	return all
}

type foldBoundary struct {
	point Point
	start bool
	fold  Fold
}

// GetFoldableRangesAtIndentLevel implements §4.1: folds nested exactly
// level folds deep, where "level" counts fold nesting, not indent columns.
func (m *LanguageMode) GetFoldableRangesAtIndentLevel(level int) []Fold {
	all := m.GetFoldableRanges()
	var boundaries []foldBoundary
	for _, f := range all {
		boundaries = append(boundaries, foldBoundary{point: f.Start, start: true, fold: f})
		boundaries = append(boundaries, foldBoundary{point: f.End, start: false, fold: f})
	}
	sort.SliceStable(boundaries, func(i, j int) bool {
		a, b := boundaries[i], boundaries[j]
		if cmp := ComparePoints(a.point, b.point); cmp != 0 {
			return cmp < 0
		}
		return !a.start && b.start
	})
	var out []Fold
	current := 0
	for _, b := range boundaries {
		if b.start {
			if current == level {
				out = append(out, b.fold)
			}
			current++
		} else {
			current--
		}
	}
	return out
}

// IsFoldableAtRow implements §4.1's cached isFoldableAtRow.
func (m *LanguageMode) IsFoldableAtRow(row int) bool {
	if v, ok := m.foldableCache[row]; ok {
		return v
	}
	_, ok := m.getFoldRangeForRow(row)
	m.foldableCache[row] = ok
	return ok
}

// CommentStringsForPosition implements §4.1: prefer the innermost
// covering grammar's own commentStrings, falling back to the config
// store scoped to the descriptor at point.
func (m *LanguageMode) CommentStringsForPosition(point Point) CommentStrings {
	row := point.Row
	r := firstNonWhitespaceRange(m.buffer, row)
	layers := m.layersCoveringPoint(r.Start)
	for i := len(layers) - 1; i >= 0; i-- {
		cs := layers[i].grammar.CommentStrings()
		if cs.Start != "" {
			return cs
		}
	}
	if m.config != nil {
		descriptor := m.ScopeDescriptorForPosition(point)
		start, _ := m.config.CommentStartForScope(descriptor)
		end, _ := m.config.CommentEndForScope(descriptor)
		return CommentStrings{Start: start, End: end}
	}
	return CommentStrings{}
}

// FindDefinitionAtPosition locates the local.reference nearest point in
// the deepest layer covering it and resolves its definition, composing
// LanguageLayer.GetLocalReferencesAtPoint and
// LanguageLayer.FindDefinitionForLocalReference the way an editor's
// go-to-definition command would.
func (m *LanguageMode) FindDefinitionAtPosition(point Point) (Point, bool) {
	point = normalizePointForPositionQuery(m.buffer, point)
	layers := m.layersCoveringPoint(point)
	for i := len(layers) - 1; i >= 0; i-- {
		refs := layers[i].GetLocalReferencesAtPoint(point)
		if len(refs) == 0 {
			continue
		}
		def := layers[i].FindDefinitionForLocalReference(refs[0].Node)
		if def == nil {
			continue
		}
		return pointFromTS(def.StartPoint()), true
	}
	return Point{}, false
}

// Definition is one named local.definition capture, as returned by
// ListLocalDefinitions.
type Definition struct {
	Name string
	Text string
	Pos  Point
}

// ListLocalDefinitions collects every local.definition capture across all
// live layers, for building a jump-to-definition index over the whole
// buffer rather than one scope at a time.
func (m *LanguageMode) ListLocalDefinitions() []Definition {
	source := []byte(m.buffer.GetText())
	var out []Definition
	for _, layer := range m.allLayers() {
		for _, c := range layer.AllLocalDefinitions() {
			out = append(out, Definition{
				Name: c.Node.Content(source),
				Text: m.buffer.LineForRow(int(c.Node.StartPoint().Row)),
				Pos:  pointFromTS(c.Node.StartPoint()),
			})
		}
	}
	return out
}

// UpdateForInjection implements §4.1: re-run injection discovery on every
// layer because grammar became available or changed.
func (m *LanguageMode) UpdateForInjection(grammar Grammar) {
	for _, layer := range m.allLayers() {
		if layer.tree == nil {
			continue
		}
		if err := layer.populateInjections(layer.Extent(), layer.currentNodeRangeSet); err != nil {
			m.logf("updateForInjection: %v", err)
		}
	}
}
