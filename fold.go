package langmode

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// InfiniteColumn stands in for the "∞" column used by fold starts: a fold
// always begins at the end of its node's start row, however long that row
// turns out to be.
const InfiniteColumn = 1 << 30

// Fold is a resolved start/end buffer range for one collapsible region.
type Fold struct {
	Start Point
	End   Point
}

func (f Fold) spansMultipleRows() bool { return f.End.Row > f.Start.Row }

type rawFoldCapture struct {
	divided bool // true for @fold.start/@fold.end, false for simple @fold
	isEnd   bool // only meaningful when divided
	node    *sitter.Node
	props   map[string]string
}

// FoldResolver owns fold discovery for one LanguageLayer, per §4.3. It
// caches the ordered set of fold captures over the layer's extent and
// invalidates on any edit inside that extent.
type FoldResolver struct {
	layer     *LanguageLayer
	cached    bool
	cachedExt Range
	captures  []rawFoldCapture
	resolved  []Fold
}

func newFoldResolver(layer *LanguageLayer) *FoldResolver {
	return &FoldResolver{layer: layer}
}

func (fr *FoldResolver) Invalidate() {
	fr.cached = false
	fr.captures = nil
	fr.resolved = nil
}

func (fr *FoldResolver) ensure() {
	if fr.cached {
		return
	}
	fr.captures = nil
	fr.resolved = nil
	fr.cached = true

	layer := fr.layer
	if layer.tree == nil || layer.grammar == nil {
		return
	}
	query, err := layer.getQuery(QueryFolds)
	if err != nil || query == nil {
		return
	}

	extent := layer.Extent()
	fr.cachedExt = extent
	source := []byte(layer.languageMode.buffer.GetText())
	raw := runQuery(query, layer.tree.RootNode(), extent.Start, extent.End, source)

	for _, c := range raw {
		switch c.Name {
		case "fold":
			fr.captures = append(fr.captures, rawFoldCapture{node: c.node(), props: c.SetProperties})
		case "fold.start":
			fr.captures = append(fr.captures, rawFoldCapture{divided: true, isEnd: false, node: c.node(), props: c.SetProperties})
		case "fold.end":
			fr.captures = append(fr.captures, rawFoldCapture{divided: true, isEnd: true, node: c.node(), props: c.SetProperties})
		}
	}

	sort.SliceStable(fr.captures, func(i, j int) bool {
		return ComparePoints(pointFromTS(fr.captures[i].node.StartPoint()), pointFromTS(fr.captures[j].node.StartPoint())) < 0
	})

	fr.resolved = fr.resolveAll(extent)
}

func (c Capture) node() *sitter.Node { return c.Node }

func (fr *FoldResolver) resolveAll(extent Range) []Fold {
	var out []Fold
	for i, rc := range fr.captures {
		if rc.divided && rc.isEnd {
			continue // matched from its paired start, never as its own root
		}
		var f Fold
		var ok bool
		if rc.divided {
			f, ok = fr.resolveDivided(i, extent)
		} else {
			f, ok = fr.resolveSimple(rc)
		}
		if ok {
			out = append(out, f)
		}
	}
	return out
}

func (fr *FoldResolver) resolveSimple(rc rawFoldCapture) (Fold, bool) {
	node := rc.node
	start := Point{Row: int(node.StartPoint().Row), Column: InfiniteColumn}

	end := pointFromTS(node.StartPoint())
	if endExpr, ok := rc.props["endAt"]; ok {
		if p, n := resolveNodeDescriptor(node, endExpr); p != nil {
			end = *p
		} else if n != nil {
			end = pointFromTS(n.EndPoint())
		}
	} else {
		n := node.Child(int(node.ChildCount()) - 1)
		if n != nil {
			end = pointFromTS(n.StartPoint())
		} else {
			end = pointFromTS(node.EndPoint())
		}
	}

	buf := fr.layer.languageMode.buffer
	if offsetStr, ok := rc.props["offsetEnd"]; ok {
		if n, ok := parseSignedInt(offsetStr); ok {
			idx := buf.CharacterIndexForPosition(end) + n
			if idx < 0 {
				idx = 0
			}
			end = buf.PositionForCharacterIndex(idx)
		}
	}
	if colStr, ok := rc.props["adjustEndColumn"]; ok {
		if n, ok := parseSignedInt(colStr); ok {
			end.Column = n
		}
	}
	if _, ok := rc.props["adjustToEndOfPreviousRow"]; ok {
		end = Point{Row: end.Row - 1, Column: InfiniteColumn}
	}

	end = buf.ClipPosition(end)
	if end.Row <= start.Row {
		return Fold{}, false
	}
	return Fold{Start: start, End: end}, true
}

func (fr *FoldResolver) resolveDivided(startIdx int, extent Range) (Fold, bool) {
	startNode := fr.captures[startIdx].node
	start := Point{Row: int(startNode.StartPoint().Row), Column: InfiniteColumn}

	depth := 0
	for i := startIdx + 1; i < len(fr.captures); i++ {
		rc := fr.captures[i]
		if !rc.divided {
			continue
		}
		if pointFromTS(rc.node.StartPoint()).Row > extent.End.Row {
			break
		}
		if !rc.isEnd {
			depth++
			continue
		}
		if depth > 0 {
			depth--
			continue
		}
		end := pointFromTS(rc.node.StartPoint())
		if end.Column == 0 {
			end = Point{Row: end.Row - 1, Column: InfiniteColumn}
		} else {
			end.Column = InfiniteColumn
		}
		if end.Row <= start.Row {
			return Fold{}, false
		}
		return Fold{Start: start, End: end}, true
	}
	return Fold{}, false
}

// AllFolds returns every fold resolved for this layer, in capture order.
func (fr *FoldResolver) AllFolds() []Fold {
	fr.ensure()
	return fr.resolved
}

// FoldRangeForRow returns the first multi-row fold whose start row is row.
func (fr *FoldResolver) FoldRangeForRow(row int) (Fold, bool) {
	fr.ensure()
	for _, f := range fr.resolved {
		if f.Start.Row == row && f.spansMultipleRows() {
			return f, true
		}
	}
	return Fold{}, false
}

// IsFoldableAtRow reports whether any fold starts at row.
func (fr *FoldResolver) IsFoldableAtRow(row int) bool {
	_, ok := fr.FoldRangeForRow(row)
	return ok
}

func parseSignedInt(s string) (int, bool) {
	neg := false
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	if i >= len(s) {
		return 0, false
	}
	n := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}
