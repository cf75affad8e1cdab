// This file was automatically generated by genny.
// Any changes will be lost if this file is regenerated.
// see https://github.com/cheekybits/genny

package memregion

// RegionNodeDL is one link of a RegionDoublyLinkedList.  Nodes carry a
// pointer to their value so that values can live in caller-owned storage,
// such as a fixed pool carved out before any allocator exists.
type RegionNodeDL struct {
	prev  *RegionNodeDL
	next  *RegionNodeDL
	value *Region
}

// Next returns the following node, or nil at the end of the list.
func (g *RegionNodeDL) Next() *RegionNodeDL {
	return g.next
}

// Prev returns the preceding node, or nil at the front of the list.
func (g *RegionNodeDL) Prev() *RegionNodeDL {
	return g.prev
}

// Value returns the node's value.
func (g *RegionNodeDL) Value() *Region {
	return g.value
}

// RegionAllocator produces a fresh node and its value storage.  It may
// return (nil, nil) to signal that the backing storage is exhausted.
type RegionAllocator func() (*RegionNodeDL, *Region)

// RegionDeallocator returns a node and its value to backing storage.
type RegionDeallocator func(*RegionNodeDL, *Region)

// RegionDoublyLinkedList implements a doubly linked list that is not
// concurrent safe.
type RegionDoublyLinkedList struct {
	first       *RegionNodeDL
	last        *RegionNodeDL
	allocator   RegionAllocator
	deallocator RegionDeallocator
}

// NewRegionDoublyLinkedList returns an empty doubly linked list.
// Note: It returns a value, not a pointer, but the methods have
// pointer receivers.
func NewRegionDoublyLinkedList() RegionDoublyLinkedList {
	return RegionDoublyLinkedList{}
}

// NewRegionDoublyLinkedListWithAllocator returns an empty doubly linked
// list whose nodes come from (and go back to) the supplied alloc and
// dealloc functions.
func NewRegionDoublyLinkedListWithAllocator(alloc RegionAllocator,
	dealloc RegionDeallocator) RegionDoublyLinkedList {
	return RegionDoublyLinkedList{allocator: alloc, deallocator: dealloc}
}

// Empty returns true if the list is empty.
func (g *RegionDoublyLinkedList) Empty() bool {
	if g.first == nil {
		if g.last != nil {
			panic("invariant violated checking for Empty")
		}
		return true
	}
	return false
}

// Length returns the number of elements in the list.  This requires
// walking the list.
func (g *RegionDoublyLinkedList) Length() int {
	l := 0
	for curr := g.first; curr != nil; curr = curr.next {
		l++
	}
	return l
}

// First returns the first node in the list or nil if the list is empty.
func (g *RegionDoublyLinkedList) First() *RegionNodeDL {
	return g.first
}

// Last returns the last node in the list or nil if the list is empty.
func (g *RegionDoublyLinkedList) Last() *RegionNodeDL {
	return g.last
}

// Append allocates a new node, puts it at the end of the list and returns
// a pointer to the new value so the caller can fill in the fields.  It
// returns nil if the allocator is exhausted.
func (g *RegionDoublyLinkedList) Append() *Region {
	n := g.newNode()
	if n == nil {
		return nil
	}
	g.AppendNode(n)
	return n.value
}

// AppendNode inserts the given node at the end of the list.  Traversals
// that start at the front see the appended node last.  The node must not
// be a member of another list.
func (g *RegionDoublyLinkedList) AppendNode(n *RegionNodeDL) {
	if n.next != nil || n.prev != nil {
		panic("attempt to insert node that is likely a member of " +
			"another list (AppendNode)")
	}
	if g.last == nil {
		if g.first != nil {
			panic("invariant of empty list is broken (AppendNode)")
		}
		g.first = n
		g.last = n
		return
	}
	old := g.last
	g.last = n
	old.next = n
	n.prev = old
}

// InsertBefore allocates a new node, inserts it before target and returns
// a pointer to the new value.  A nil target means append.  It returns nil
// if the allocator is exhausted.
func (g *RegionDoublyLinkedList) InsertBefore(target *RegionNodeDL) *Region {
	n := g.newNode()
	if n == nil {
		return nil
	}
	g.InsertNodeBefore(target, n)
	return n.value
}

// InsertNodeBefore inserts n before target.  A nil target performs
// AppendNode.
func (g *RegionDoublyLinkedList) InsertNodeBefore(target *RegionNodeDL,
	n *RegionNodeDL) {

	if target == nil {
		g.AppendNode(n)
		return
	}
	prev := target.prev
	n.next = target
	target.prev = n
	n.prev = prev
	if prev == nil {
		if g.first != target {
			panic("invariant violated with first element (InsertNodeBefore)")
		}
		g.first = n
		return
	}
	prev.next = n
}

// Remove takes a node out of the list.
func (g *RegionDoublyLinkedList) Remove(n *RegionNodeDL) {
	if n.prev == nil {
		if g.first != n {
			panic("invariant violated removing first element (Remove)")
		}
		g.first = n.next
	} else {
		n.prev.next = n.next
	}
	if n.next == nil {
		if g.last != n {
			panic("invariant violated removing last element (Remove)")
		}
		g.last = n.prev
	} else {
		n.next.prev = n.prev
	}
	n.next = nil
	n.prev = nil
}

// RemoveAndRelease takes a node out of the list and returns it and its
// value to the deallocator.  With no deallocator this is the same as
// Remove.
func (g *RegionDoublyLinkedList) RemoveAndRelease(n *RegionNodeDL) {
	g.Remove(n)
	if g.deallocator != nil {
		g.deallocator(n, n.value)
	}
}

// TraverseRegion walks all the values in the list, in order, starting at
// the front.  If the iteration function returns an error, the traversal
// is halted and that error is returned.
func (g *RegionDoublyLinkedList) TraverseRegion(fn func(v *Region) error) error {
	for curr := g.first; curr != nil; curr = curr.next {
		if err := fn(curr.value); err != nil {
			return err
		}
	}
	return nil
}

// TraverseNodesRegion walks all the nodes in the list, in order, starting
// at the front.  It is ok for the iteration function to modify nodes that
// are behind the current one.
func (g *RegionDoublyLinkedList) TraverseNodesRegion(fn func(n *RegionNodeDL) error) error {
	for curr := g.first; curr != nil; {
		next := curr.next
		if err := fn(curr); err != nil {
			return err
		}
		curr = next
	}
	return nil
}

func (g *RegionDoublyLinkedList) newNode() *RegionNodeDL {
	if g.allocator != nil {
		node, value := g.allocator()
		if node == nil {
			return nil
		}
		node.value = value
		return node
	}
	return &RegionNodeDL{value: new(Region)}
}
