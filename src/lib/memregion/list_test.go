package memregion

import (
	"testing"
)

func mkRegion(base, length uint64, t RegionType, f RegionFlag) Region {
	return Region{PBase: base, VBase: base, Len: length, Type: t, Flags: f}
}

func checkRegions(t *testing.T, got []Region, want []Region) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d regions but got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("region %d: expected %v but got %v", i, &want[i], &got[i])
		}
	}
}

func TestInsertKeepsOrder(t *testing.T) {
	l := NewList(8)
	in := []Region{
		mkRegion(0x40000, 0x2000, RegionFree, FlagRead|FlagWrite),
		mkRegion(0x10000, 0x1000, RegionReserved, FlagRead|FlagMap),
		mkRegion(0x20000, 0x1000, RegionFree, FlagRead|FlagWrite),
	}
	for _, r := range in {
		if err := l.Insert(r); err != nil {
			t.Fatalf("unexpected insert failure: %v", err)
		}
	}
	checkRegions(t, l.Regions(), []Region{in[1], in[2], in[0]})
}

func TestInsertRejectsBadRegions(t *testing.T) {
	l := NewList(4)
	bad := []Region{
		mkRegion(0, 0x1000, RegionFree, FlagRead),           // zero base
		mkRegion(0x1000, 0x800, RegionFree, FlagRead),       // shorter than a page
		mkRegion(0xfffffffffffff000, 0x2000, RegionFree, 0), // wraps past the end
	}
	for _, r := range bad {
		if err := l.Insert(r); err != ErrBadRegion {
			t.Errorf("expected ErrBadRegion for %v but got %v", &r, err)
		}
	}
	if l.Len() != 0 {
		t.Errorf("rejected regions must not appear in the list")
	}
}

func TestInsertSignalsExhaustion(t *testing.T) {
	l := NewList(2)
	if err := l.Insert(mkRegion(0x1000, 0x1000, RegionFree, FlagRead)); err != nil {
		t.Fatalf("unexpected insert failure: %v", err)
	}
	if err := l.Insert(mkRegion(0x3000, 0x1000, RegionFree, FlagRead)); err != nil {
		t.Fatalf("unexpected insert failure: %v", err)
	}
	err := l.Insert(mkRegion(0x5000, 0x1000, RegionFree, FlagRead))
	if err != ErrNoSpace {
		t.Errorf("expected ErrNoSpace on a full list but got %v", err)
	}
}

func TestCoalesceMergesNeighbors(t *testing.T) {
	in := []Region{
		mkRegion(0x40000, 0x2000, RegionFree, FlagRead|FlagWrite),
		mkRegion(0x41000, 0x2000, RegionFree, FlagRead|FlagWrite), // overlaps previous
		mkRegion(0x43000, 0x2000, RegionFree, FlagRead|FlagWrite), // contiguous
		mkRegion(0x45000, 0x2000, RegionReserved, FlagRead|FlagMap),
		mkRegion(0x48000, 0x1000, RegionFree, FlagRead|FlagWrite),
	}
	want := []Region{
		mkRegion(0x40000, 0x5000, RegionFree, FlagRead|FlagWrite),
		mkRegion(0x45000, 0x2000, RegionReserved, FlagRead|FlagMap),
		mkRegion(0x48000, 0x1000, RegionFree, FlagRead|FlagWrite),
	}

	l := NewList(8)
	for _, r := range in {
		if err := l.Insert(r); err != nil {
			t.Fatalf("unexpected insert failure: %v", err)
		}
	}
	l.Coalesce()
	checkRegions(t, l.Regions(), want)

	// a second pass is a no-op
	l.Coalesce()
	checkRegions(t, l.Regions(), want)
}

func TestCoalesceKeepsDifferingAttrs(t *testing.T) {
	l := NewList(4)
	a := mkRegion(0x40000, 0x1000, RegionFree, FlagRead|FlagWrite)
	b := mkRegion(0x41000, 0x1000, RegionFree, FlagRead)
	c := mkRegion(0x42000, 0x1000, RegionReserved, FlagRead)
	for _, r := range []Region{a, b, c} {
		if err := l.Insert(r); err != nil {
			t.Fatalf("unexpected insert failure: %v", err)
		}
	}
	l.Coalesce()
	checkRegions(t, l.Regions(), []Region{a, b, c})
}

func TestCoalesceConvergesFromPermutations(t *testing.T) {
	base := []Region{
		mkRegion(0x40000, 0x2000, RegionFree, FlagRead|FlagWrite),
		mkRegion(0x42000, 0x2000, RegionFree, FlagRead|FlagWrite),
		mkRegion(0x44000, 0x1000, RegionFree, FlagRead|FlagWrite),
		mkRegion(0x50000, 0x1000, RegionReserved, FlagRead|FlagMap),
	}
	want := []Region{
		mkRegion(0x40000, 0x5000, RegionFree, FlagRead|FlagWrite),
		mkRegion(0x50000, 0x1000, RegionReserved, FlagRead|FlagMap),
	}
	perms := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{2, 0, 3, 1},
		{1, 3, 0, 2},
	}
	for _, p := range perms {
		l := NewList(8)
		for _, i := range p {
			if err := l.Insert(base[i]); err != nil {
				t.Fatalf("unexpected insert failure: %v", err)
			}
		}
		l.Coalesce()
		checkRegions(t, l.Regions(), want)
	}
}

func TestCoalesceRecyclesPoolNodes(t *testing.T) {
	// merging frees pool slots, so a full-capacity list can accept more
	// regions after a coalesce pass
	l := NewList(2)
	l.Insert(mkRegion(0x40000, 0x1000, RegionFree, FlagRead|FlagWrite))
	l.Insert(mkRegion(0x41000, 0x1000, RegionFree, FlagRead|FlagWrite))
	l.Coalesce()
	if l.Len() != 1 {
		t.Fatalf("expected a single merged region, got %d", l.Len())
	}
	if err := l.Insert(mkRegion(0x50000, 0x1000, RegionReserved, FlagRead)); err != nil {
		t.Errorf("expected insert to reuse the freed slot but got %v", err)
	}
}
