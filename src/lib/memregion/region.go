package memregion

import "fmt"

// PageSize is the smallest unit of memory the early boot code tracks.
// No region in a boot record may be smaller than this.
const PageSize = uint64(0x1000)

type RegionType uint16

const (
	RegionFree RegionType = iota + 1
	RegionReserved
	RegionCmdline
	RegionInitrd
	RegionDeviceTree
)

func (t RegionType) String() string {
	switch t {
	case RegionFree:
		return "free"
	case RegionReserved:
		return "reserved"
	case RegionCmdline:
		return "cmdline"
	case RegionInitrd:
		return "initrd"
	case RegionDeviceTree:
		return "devicetree"
	}
	return "unknown"
}

type RegionFlag uint16

const (
	FlagRead RegionFlag = 1 << iota
	FlagWrite
	FlagExecute
	FlagMap
)

func (f RegionFlag) String() string {
	s := ""
	add := func(on RegionFlag, c string) {
		if f&on != 0 {
			s += c
		} else {
			s += "-"
		}
	}
	add(FlagRead, "r")
	add(FlagWrite, "w")
	add(FlagExecute, "x")
	add(FlagMap, "m")
	return s
}

// Region is one kernel-owned piece of physical memory, partitioned by
// purpose and access rights.  VBase is identity mapped at this stage of
// boot; paging setup may change that later.
type Region struct {
	PBase uint64
	VBase uint64
	Len   uint64
	Type  RegionType
	Flags RegionFlag
}

// End returns the first address past the region.
func (r *Region) End() uint64 {
	return r.PBase + r.Len
}

// Valid reports whether the region obeys the boot record invariants:
// at least one page long, end strictly past start, and never claiming
// the zero page.
func (r *Region) Valid() bool {
	return r.PBase != 0 && r.Len >= PageSize && r.End() > r.PBase
}

// sameAttrs is the coalescing criterion: only regions that agree on both
// type and access flags may merge.
func (r *Region) sameAttrs(o *Region) bool {
	return r.Type == o.Type && r.Flags == o.Flags
}

func (r *Region) String() string {
	return fmt.Sprintf("[%#x-%#x) %s %s", r.PBase, r.End(), r.Type, r.Flags)
}
