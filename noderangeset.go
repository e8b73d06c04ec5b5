package langmode

import sitter "github.com/smacker/go-tree-sitter"

// TSRange is the disjoint (index, position) span fed to a parser, mirroring
// the subset of tree_sitter.Range the engine itself consumes.
type TSRange struct {
	StartIndex    int
	EndIndex      int
	StartPosition Point
	EndPosition   Point
}

func (r TSRange) toTS() sitter.Range {
	return sitter.Range{
		StartPoint: r.StartPosition.toTS(),
		EndPoint:   r.EndPosition.toTS(),
		StartByte:  uint32(r.StartIndex),
		EndByte:    uint32(r.EndIndex),
	}
}

// NodeRangeSet computes the disjoint buffer ranges fed to an injected
// layer's parser, per §4.6. It is built from a set of "content" nodes
// discovered by an injection point, optionally intersected against the
// parent layer's own NodeRangeSet so that nested injections never claim
// text their parent doesn't own.
type NodeRangeSet struct {
	previous        *NodeRangeSet
	nodes           []*sitter.Node
	newlinesBetween bool
	includeChildren bool
}

// NewNodeRangeSet builds a range set over nodes, intersected against
// previous (nil for a top-level injection).
func NewNodeRangeSet(previous *NodeRangeSet, nodes []*sitter.Node, newlinesBetween, includeChildren bool) *NodeRangeSet {
	return &NodeRangeSet{
		previous:        previous,
		nodes:           nodes,
		newlinesBetween: newlinesBetween,
		includeChildren: includeChildren,
	}
}

// GetRanges computes the final disjoint ranges, intersected through every
// ancestor NodeRangeSet and with synthetic single-character newline ranges
// spliced in when newlinesBetween is set and a row boundary was crossed.
func (s *NodeRangeSet) GetRanges(buf Buffer) []TSRange {
	if s == nil {
		return nil
	}

	var own []TSRange
	for _, node := range s.nodes {
		own = append(own, s.rangesForNode(node)...)
	}

	if s.previous != nil {
		parentRanges := s.previous.GetRanges(buf)
		own = intersectRangeLists(own, parentRanges, buf)
	}

	if s.newlinesBetween {
		own = spliceNewlines(own)
	}

	return own
}

// rangesForNode yields the sub-ranges a single content node contributes.
// includeChildren=false excludes the text owned by named children (so an
// HTML <script> element's own tag text is skipped and only the JS content
// between its children's gaps remains); includeChildren=true takes the
// node's full span.
func (s *NodeRangeSet) rangesForNode(node *sitter.Node) []TSRange {
	if node == nil {
		return nil
	}
	if s.includeChildren {
		return []TSRange{{
			StartIndex:    int(node.StartByte()),
			EndIndex:      int(node.EndByte()),
			StartPosition: pointFromTS(node.StartPoint()),
			EndPosition:   pointFromTS(node.EndPoint()),
		}}
	}

	var out []TSRange
	cursor := TSRange{
		StartIndex:    int(node.StartByte()),
		EndIndex:      int(node.StartByte()),
		StartPosition: pointFromTS(node.StartPoint()),
		EndPosition:   pointFromTS(node.StartPoint()),
	}

	named := int(node.NamedChildCount())
	for i := 0; i < named; i++ {
		child := node.NamedChild(i)
		gapEnd := TSRange{
			StartIndex:    cursor.StartIndex,
			EndIndex:      int(child.StartByte()),
			StartPosition: cursor.StartPosition,
			EndPosition:   pointFromTS(child.StartPoint()),
		}
		if gapEnd.EndIndex > gapEnd.StartIndex {
			out = append(out, gapEnd)
		}
		cursor = TSRange{
			StartIndex:    int(child.EndByte()),
			EndIndex:      int(child.EndByte()),
			StartPosition: pointFromTS(child.EndPoint()),
			EndPosition:   pointFromTS(child.EndPoint()),
		}
	}

	tail := TSRange{
		StartIndex:    cursor.StartIndex,
		EndIndex:      int(node.EndByte()),
		StartPosition: cursor.StartPosition,
		EndPosition:   pointFromTS(node.EndPoint()),
	}
	if tail.EndIndex > tail.StartIndex {
		out = append(out, tail)
	}
	return out
}

func intersectRangeLists(a, b []TSRange, buf Buffer) []TSRange {
	if len(b) == 0 {
		return nil
	}
	var out []TSRange
	j := 0
	for _, ra := range a {
		for j < len(b) && b[j].EndIndex <= ra.StartIndex {
			j++
		}
		k := j
		for k < len(b) && b[k].StartIndex < ra.EndIndex {
			start := ra.StartIndex
			if b[k].StartIndex > start {
				start = b[k].StartIndex
			}
			end := ra.EndIndex
			if b[k].EndIndex < end {
				end = b[k].EndIndex
			}
			if end > start {
				out = append(out, TSRange{
					StartIndex:    start,
					EndIndex:      end,
					StartPosition: pointForIndexWithin(buf, ra, start),
					EndPosition:   pointForIndexWithin(buf, ra, end),
				})
			}
			k++
		}
	}
	return out
}

// pointForIndexWithin returns the row/column for a byte index clipped out of
// r: the index usually lands on one of r's own endpoints (returned directly,
// with no buffer lookup needed), but for a nested injection — where a
// grandchild's own node range spans text that a shallower ancestor only
// partially owns (per §4.6, "nested layers with arbitrary depth") — the
// clip point can fall strictly inside r, at a position only the buffer
// itself can resolve.
func pointForIndexWithin(buf Buffer, r TSRange, index int) Point {
	switch index {
	case r.StartIndex:
		return r.StartPosition
	case r.EndIndex:
		return r.EndPosition
	default:
		return buf.PositionForCharacterIndex(index)
	}
}

func spliceNewlines(ranges []TSRange) []TSRange {
	if len(ranges) < 2 {
		return ranges
	}
	out := make([]TSRange, 0, len(ranges)*2-1)
	out = append(out, ranges[0])
	for i := 1; i < len(ranges); i++ {
		prev := ranges[i-1]
		cur := ranges[i]
		if cur.StartPosition.Row > prev.EndPosition.Row {
			out = append(out, TSRange{
				StartIndex:    prev.EndIndex,
				EndIndex:      prev.EndIndex + 1,
				StartPosition: prev.EndPosition,
				EndPosition:   Point{Row: prev.EndPosition.Row + 1, Column: 0},
			})
		}
		out = append(out, cur)
	}
	return out
}
