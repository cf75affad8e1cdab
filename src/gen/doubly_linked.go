package gen

import (
	"github.com/cheekybits/genny/generic"
)

type Generic generic.Type

// GenericNodeDL is one link of a GenericDoublyLinkedList.  Nodes carry a
// pointer to their value so that values can live in caller-owned storage,
// such as a fixed pool carved out before any allocator exists.
type GenericNodeDL struct {
	prev  *GenericNodeDL
	next  *GenericNodeDL
	value *Generic
}

// Next returns the following node, or nil at the end of the list.
func (g *GenericNodeDL) Next() *GenericNodeDL {
	return g.next
}

// Prev returns the preceding node, or nil at the front of the list.
func (g *GenericNodeDL) Prev() *GenericNodeDL {
	return g.prev
}

// Value returns the node's value.
func (g *GenericNodeDL) Value() *Generic {
	return g.value
}

// GenericAllocator produces a fresh node and its value storage.  It may
// return (nil, nil) to signal that the backing storage is exhausted.
type GenericAllocator func() (*GenericNodeDL, *Generic)

// GenericDeallocator returns a node and its value to backing storage.
type GenericDeallocator func(*GenericNodeDL, *Generic)

// GenericDoublyLinkedList implements a doubly linked list that is not
// concurrent safe.
type GenericDoublyLinkedList struct {
	first       *GenericNodeDL
	last        *GenericNodeDL
	allocator   GenericAllocator
	deallocator GenericDeallocator
}

// NewGenericDoublyLinkedList returns an empty doubly linked list.
// Note: It returns a value, not a pointer, but the methods have
// pointer receivers.
func NewGenericDoublyLinkedList() GenericDoublyLinkedList {
	return GenericDoublyLinkedList{}
}

// NewGenericDoublyLinkedListWithAllocator returns an empty doubly linked
// list whose nodes come from (and go back to) the supplied alloc and
// dealloc functions.
func NewGenericDoublyLinkedListWithAllocator(alloc GenericAllocator,
	dealloc GenericDeallocator) GenericDoublyLinkedList {
	return GenericDoublyLinkedList{allocator: alloc, deallocator: dealloc}
}

// Empty returns true if the list is empty.
func (g *GenericDoublyLinkedList) Empty() bool {
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
func (g *GenericDoublyLinkedList) Length() int {
	l := 0
	for curr := g.first; curr != nil; curr = curr.next {
		l++
	}
	return l
}

// First returns the first node in the list or nil if the list is empty.
func (g *GenericDoublyLinkedList) First() *GenericNodeDL {
	return g.first
}

// Last returns the last node in the list or nil if the list is empty.
func (g *GenericDoublyLinkedList) Last() *GenericNodeDL {
	return g.last
}

// Append allocates a new node, puts it at the end of the list and returns
// a pointer to the new value so the caller can fill in the fields.  It
// returns nil if the allocator is exhausted.
func (g *GenericDoublyLinkedList) Append() *Generic {
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
func (g *GenericDoublyLinkedList) AppendNode(n *GenericNodeDL) {
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
func (g *GenericDoublyLinkedList) InsertBefore(target *GenericNodeDL) *Generic {
	n := g.newNode()
	if n == nil {
		return nil
	}
	g.InsertNodeBefore(target, n)
	return n.value
}

// InsertNodeBefore inserts n before target.  A nil target performs
// AppendNode.
func (g *GenericDoublyLinkedList) InsertNodeBefore(target *GenericNodeDL,
	n *GenericNodeDL) {

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
func (g *GenericDoublyLinkedList) Remove(n *GenericNodeDL) {
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
func (g *GenericDoublyLinkedList) RemoveAndRelease(n *GenericNodeDL) {
	g.Remove(n)
	if g.deallocator != nil {
		g.deallocator(n, n.value)
	}
}

// TraverseGeneric walks all the values in the list, in order, starting at
// the front.  If the iteration function returns an error, the traversal
// is halted and that error is returned.
func (g *GenericDoublyLinkedList) TraverseGeneric(fn func(v *Generic) error) error {
	for curr := g.first; curr != nil; curr = curr.next {
		if err := fn(curr.value); err != nil {
			return err
		}
	}
	return nil
}

// TraverseNodesGeneric walks all the nodes in the list, in order, starting
// at the front.  It is ok for the iteration function to modify nodes that
// are behind the current one.
func (g *GenericDoublyLinkedList) TraverseNodesGeneric(fn func(n *GenericNodeDL) error) error {
	for curr := g.first; curr != nil; {
		next := curr.next
		if err := fn(curr); err != nil {
			return err
		}
		curr = next
	}
	return nil
}

func (g *GenericDoublyLinkedList) newNode() *GenericNodeDL {
	if g.allocator != nil {
		node, value := g.allocator()
		if node == nil {
			return nil
		}
		node.value = value
		return node
	}
	return &GenericNodeDL{value: new(Generic)}
}
