package memregion

import "errors"

var (
	// ErrNoSpace means the fixed region pool behind a list is exhausted.
	// Insert never drops a region silently.
	ErrNoSpace = errors.New("region list capacity exhausted")

	// ErrBadRegion means the region violates the boot record invariants.
	ErrBadRegion = errors.New("region violates boot record invariants")
)

// List is an ordered collection of regions with a fixed capacity, chosen
// when the list is created.  Early boot has no allocator of its own, so
// nodes come from a pool carved out up front and are recycled when
// coalescing merges neighbors.
type List struct {
	dl    RegionDoublyLinkedList
	nodes []RegionNodeDL
	vals  []Region
	next  int
	freed []*RegionNodeDL
}

// NewList returns an empty region list that can hold at most capacity
// regions.
func NewList(capacity int) *List {
	l := &List{
		nodes: make([]RegionNodeDL, capacity),
		vals:  make([]Region, capacity),
	}
	l.dl = NewRegionDoublyLinkedListWithAllocator(l.alloc, l.dealloc)
	return l
}

func (l *List) alloc() (*RegionNodeDL, *Region) {
	if n := len(l.freed); n > 0 {
		node := l.freed[n-1]
		l.freed = l.freed[:n-1]
		return node, node.value
	}
	if l.next == len(l.nodes) {
		return nil, nil
	}
	node, value := &l.nodes[l.next], &l.vals[l.next]
	l.next++
	return node, value
}

func (l *List) dealloc(n *RegionNodeDL, _ *Region) {
	l.freed = append(l.freed, n)
}

// Len returns the number of regions currently in the list.
func (l *List) Len() int {
	return l.dl.Length()
}

// Insert places a copy of r into the list, keeping ascending physical
// base order.  It fails with ErrBadRegion for regions that violate the
// invariants and ErrNoSpace when the pool is exhausted.
func (l *List) Insert(r Region) error {
	if !r.Valid() {
		return ErrBadRegion
	}
	var at *RegionNodeDL
	for n := l.dl.First(); n != nil; n = n.Next() {
		if n.Value().PBase > r.PBase {
			at = n
			break
		}
	}
	v := l.dl.InsertBefore(at)
	if v == nil {
		return ErrNoSpace
	}
	*v = r
	return nil
}

// Coalesce merges neighbors that agree on type and flags and touch or
// overlap.  It is idempotent: coalescing an already coalesced list
// changes nothing.
func (l *List) Coalesce() {
	curr := l.dl.First()
	for curr != nil {
		next := curr.Next()
		if next == nil {
			break
		}
		c, n := curr.Value(), next.Value()
		if c.sameAttrs(n) && n.PBase <= c.End() {
			if n.End() > c.End() {
				c.Len = n.End() - c.PBase
			}
			l.dl.RemoveAndRelease(next)
			continue
		}
		curr = next
	}
}

// Traverse walks the regions in ascending physical base order.  A non-nil
// error from fn halts the walk and is returned.
func (l *List) Traverse(fn func(r *Region) error) error {
	return l.dl.TraverseRegion(fn)
}

// Regions returns a copy of the list contents in order.
func (l *List) Regions() []Region {
	out := make([]Region, 0, l.Len())
	l.dl.TraverseRegion(func(r *Region) error {
		out = append(out, *r)
		return nil
	})
	return out
}
