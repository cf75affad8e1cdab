package gen

import (
	"testing"
)

func TestBasics(t *testing.T) {
	g := NewGenericDoublyLinkedList()
	basicHelper(t, &g)
}

func TestBasicsWithAlloc(t *testing.T) {
	nodes := make([]GenericNodeDL, 4)
	values := make([]Generic, 4)
	used := 0
	alloc := func() (*GenericNodeDL, *Generic) {
		if used == len(nodes) {
			return nil, nil
		}
		n, v := &nodes[used], &values[used]
		used++
		return n, v
	}
	g := NewGenericDoublyLinkedListWithAllocator(alloc, nil)
	basicHelper(t, &g)
	if g.Append() == nil {
		t.Errorf("allocator should have one node left")
	}
	if g.Append() != nil {
		t.Errorf("expected exhausted allocator to make Append return nil")
	}
}

func basicHelper(t *testing.T, g *GenericDoublyLinkedList) {
	t.Helper()

	if !g.Empty() {
		t.Errorf("doubly linked list not empty at start")
	}
	if 0 != g.Length() {
		t.Errorf("doubly linked list not empty at start")
	}
	if g.First() != nil {
		t.Errorf("doubly linked list not empty at start")
	}
	if g.Last() != nil {
		t.Errorf("doubly linked list not empty at start")
	}

	s1 := g.Append()
	*s1 = "alpha"
	if g.Empty() {
		t.Errorf("doubly linked list failed empty test after append")
	}
	if 1 != g.Length() {
		t.Errorf("doubly linked list failed to update Length() correctly")
	}
	if s1 != g.First().Value() {
		t.Errorf("doubly linked list First() error")
	}
	if s1 != g.Last().Value() {
		t.Errorf("doubly linked list Last() error")
	}

	s2 := g.Append()
	*s2 = "bravo"
	if 2 != g.Length() {
		t.Errorf("doubly linked list failed to update Length() after 2nd append")
	}
	if s1 != g.First().Value() {
		t.Errorf("doubly linked list failed to update First() properly")
	}
	if s2 != g.Last().Value() {
		t.Errorf("doubly linked list failed to update Last() properly")
	}

	s3 := g.InsertBefore(g.Last())
	*s3 = "charlie"
	if 3 != g.Length() {
		t.Errorf("doubly linked list failed to update Length() after InsertBefore")
	}
	if s3 != g.First().Next().Value() {
		t.Errorf("doubly linked list failed to place InsertBefore value in the middle")
	}
	if s3 != g.Last().Prev().Value() {
		t.Errorf("doubly linked list failed to link InsertBefore value backwards")
	}
	if nil != g.Last().Next() {
		t.Errorf("doubly linked list last is not last!")
	}
	if nil != g.First().Prev() {
		t.Errorf("doubly linked list first is not first!")
	}

	count := 0
	if err := g.TraverseGeneric(func(v *Generic) error {
		count++
		return nil
	}); err != nil {
		t.Errorf("unexpected traversal error: %v", err)
	}
	if count != 3 {
		t.Errorf("doubly linked list traversal test")
	}

	mid := g.First().Next()
	g.Remove(mid)
	if 2 != g.Length() {
		t.Errorf("doubly linked list failed to update Length() after Remove")
	}
	if s2 != g.First().Next().Value() {
		t.Errorf("doubly linked list failed to relink after Remove")
	}
	g.Remove(g.First())
	g.Remove(g.First())
	if !g.Empty() {
		t.Errorf("doubly linked list should be empty after removing everything")
	}
}
