package langmode

import (
	"sort"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ScopeResolver consumes raw query captures and turns them into a
// deterministic stream of (point, open/close scope-id) boundary events.
// Per §4.5 it owns capture deduplication, property-driven range
// adjustment, and rejection of invalid captures; §2 gives it its own
// budget slice because its behavior is part of the observable contract
// even though the spec treats it as a pluggable collaborator.
type ScopeResolver interface {
	// Store records one capture and returns the effective range the
	// resolver assigned it, or (Range{}, false) if the capture was
	// rejected.
	Store(mode *LanguageMode, capture Capture, overrideID int) (Range, bool)
	SetBoundary(point Point, scopeID int, open bool)
	Reset()
	// Boundaries returns the accumulated events in buffer order; they stay
	// recorded until Reset.
	Boundaries() []boundaryEvent
}

type boundaryEvent struct {
	Point Point
	Open  []int
	Close []int
}

// defaultScopeResolver is the concrete ScopeResolver shipped with the core.
type defaultScopeResolver struct {
	events map[Point]*boundaryEvent
}

func newScopeResolver() *defaultScopeResolver {
	return &defaultScopeResolver{events: make(map[Point]*boundaryEvent)}
}

func (r *defaultScopeResolver) Reset() {
	r.events = make(map[Point]*boundaryEvent)
}

func (r *defaultScopeResolver) at(p Point) *boundaryEvent {
	ev, ok := r.events[p]
	if !ok {
		ev = &boundaryEvent{Point: p}
		r.events[p] = ev
	}
	return ev
}

func (r *defaultScopeResolver) SetBoundary(point Point, scopeID int, open bool) {
	ev := r.at(point)
	if open {
		ev.Open = appendUnique(ev.Open, scopeID)
	} else {
		ev.Close = appendUnique(ev.Close, scopeID)
	}
}

func appendUnique(ids []int, id int) []int {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// Store implements the capture-range adjustment rules: `#set!` properties
// named startAt/endAt walk the node-descriptor mini-language (§6) to move
// an endpoint; a capture with an empty resulting range is rejected, as is
// one with no node at all.
func (r *defaultScopeResolver) Store(mode *LanguageMode, capture Capture, overrideID int) (Range, bool) {
	if capture.Node == nil {
		return Range{}, false
	}

	start := pointFromTS(capture.Node.StartPoint())
	end := pointFromTS(capture.Node.EndPoint())

	if capture.SetProperties != nil {
		if expr, ok := capture.SetProperties["startAt"]; ok {
			if p, node := resolveNodeDescriptor(capture.Node, expr); node != nil || p != nil {
				if p != nil {
					start = *p
				} else {
					start = pointFromTS(node.StartPoint())
				}
			}
		}
		if expr, ok := capture.SetProperties["endAt"]; ok {
			if p, node := resolveNodeDescriptor(capture.Node, expr); node != nil || p != nil {
				if p != nil {
					end = *p
				} else {
					end = pointFromTS(node.EndPoint())
				}
			}
		}
	}

	if !start.IsLessThan(end) {
		return Range{}, false
	}

	id := overrideID
	if id == 0 {
		id = mode.GetOrCreateScopeID(capture.Name)
	}

	r.SetBoundary(start, id, true)
	r.SetBoundary(end, id, false)

	return Range{Start: start, End: end}, true
}

func (r *defaultScopeResolver) Boundaries() []boundaryEvent {
	out := make([]boundaryEvent, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, *ev)
	}
	sort.Slice(out, func(i, j int) bool { return ComparePoints(out[i].Point, out[j].Point) < 0 })
	return out
}

// resolveNodeDescriptor walks a dot-separated chain of property names
// against node, per the "node-descriptor mini-language" in §6 (e.g.
// "firstNamedChild.endPosition"). A nil intermediate breaks the chain and
// both return values come back nil.
func resolveNodeDescriptor(node *sitter.Node, expr string) (*Point, *sitter.Node) {
	parts := strings.Split(expr, ".")
	cur := node
	for i, part := range parts {
		if cur == nil {
			return nil, nil
		}
		last := i == len(parts)-1
		switch part {
		case "parent":
			cur = cur.Parent()
		case "firstChild":
			if cur.ChildCount() == 0 {
				return nil, nil
			}
			cur = cur.Child(0)
		case "lastChild":
			n := cur.ChildCount()
			if n == 0 {
				return nil, nil
			}
			cur = cur.Child(int(n) - 1)
		case "firstNamedChild":
			if cur.NamedChildCount() == 0 {
				return nil, nil
			}
			cur = cur.NamedChild(0)
		case "lastNamedChild":
			n := cur.NamedChildCount()
			if n == 0 {
				return nil, nil
			}
			cur = cur.NamedChild(int(n) - 1)
		case "nextSibling":
			cur = cur.NextSibling()
		case "previousSibling":
			cur = cur.PrevSibling()
		case "startPosition":
			p := pointFromTS(cur.StartPoint())
			if last {
				return &p, nil
			}
			return nil, nil
		case "endPosition":
			p := pointFromTS(cur.EndPoint())
			if last {
				return &p, nil
			}
			return nil, nil
		default:
			if idx, err := strconv.Atoi(part); err == nil {
				if idx < 0 || idx >= int(cur.ChildCount()) {
					return nil, nil
				}
				cur = cur.Child(idx)
				continue
			}
			return nil, nil
		}
	}
	if cur == nil {
		return nil, nil
	}
	return nil, cur
}
