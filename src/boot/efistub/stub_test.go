package efistub

import (
	"strings"
	"testing"

	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/boot/efi/simfw"
	"github.com/ggracechoi/unikraft/src/lib/bootinfo"
	"github.com/ggracechoi/unikraft/src/lib/memregion"
)

// bootFirmware builds a small but representative machine: low RAM that
// touches the zero page, a boot-services sandwich that should coalesce
// into one free range, runtime services, ACPI tables, and an MMIO hole.
func bootFirmware() *simfw.Firmware {
	fw := simfw.New()
	fw.MapEntries = []efi.MemoryDescriptor{
		desc(efi.EfiConventionalMemory, 0, 0xA0),
		desc(efi.EfiBootServicesCode, 0x100000, 0x10),
		desc(efi.EfiBootServicesData, 0x110000, 0x10),
		desc(efi.EfiConventionalMemory, 0x120000, 0xE0),
		desc(efi.EfiRuntimeServicesCode, 0x800000, 4),
		desc(efi.EfiRuntimeServicesData, 0x804000, 4),
		desc(efi.EfiACPIReclaimMemory, 0x900000, 2),
		desc(efi.EfiMemoryMappedIO, 0xFEC00000, 1),
	}
	return fw
}

// newTestSession pins the arch hooks off so expectations do not depend
// on the host architecture.
func newTestSession(fw *simfw.Firmware, cfg Config) *Session {
	s := NewSession(fw.ImageHandle, fw.SystemTable(), cfg)
	s.archInsertLegacyHiMem = nil
	s.archReserveStartupVector = nil
	return s
}

func checkRegion(t *testing.T, r memregion.Region, base, length uint64,
	rt memregion.RegionType, flags memregion.RegionFlag) {

	t.Helper()
	if r.PBase != base || r.Len != length || r.Type != rt || r.Flags != flags {
		t.Errorf("got %s, want pbase %#x len %#x %s %s", &r, base, length, rt, flags)
	}
	if r.VBase != r.PBase {
		t.Errorf("region %s not identity mapped", &r)
	}
}

func calls(fw *simfw.Firmware, name string) int {
	n := 0
	for _, c := range fw.CallLog {
		if c == name {
			n++
		}
	}
	return n
}

func TestHandoffBuildsBootRecord(t *testing.T) {
	fw := bootFirmware()
	s := newTestSession(fw, DefaultConfig())
	bi := bootinfo.New()
	s.populateBootInfo(bi)

	if !fw.Exited() {
		t.Fatal("boot services still up after handoff")
	}
	if !bi.Finalized() {
		t.Fatal("boot record not sealed")
	}
	if bi.Bootloader != "EFI_STUB" || bi.Bootprotocol != "EFI" {
		t.Errorf("bad identity tags %q/%q", bi.Bootloader, bi.Bootprotocol)
	}
	if bi.EFISystemTable != uint64(fw.SystemTable().Addr) {
		t.Errorf("system table pointer %#x not recorded", bi.EFISystemTable)
	}
	if bi.Cmdline != 0 || bi.DTB != 0 {
		t.Errorf("phantom payloads: cmdline %#x dtb %#x", bi.Cmdline, bi.DTB)
	}

	const (
		rw  = memregion.FlagRead | memregion.FlagWrite
		rm  = memregion.FlagRead | memregion.FlagMap
		rwm = memregion.FlagRead | memregion.FlagWrite | memregion.FlagMap
	)
	regions := bi.Regions.Regions()
	if len(regions) != 5 {
		t.Fatalf("got %d regions, want 5: %v", len(regions), regions)
	}
	checkRegion(t, regions[0], 0x1000, 0x9F000, memregion.RegionFree, rw)
	checkRegion(t, regions[1], 0x100000, 0x100000, memregion.RegionFree, rw)
	checkRegion(t, regions[2], 0x800000, 0x8000, memregion.RegionReserved, rwm)
	checkRegion(t, regions[3], 0x900000, 0x2000, memregion.RegionReserved, rm)
	checkRegion(t, regions[4], 0xFEC00000, 0x1000, memregion.RegionReserved, rwm)
}

func TestMinimalTwoDescriptorMap(t *testing.T) {
	// A reclaimable bank plus a reserved zero page: the bank becomes
	// the one free region and the zero page contributes nothing.
	fw := simfw.New()
	fw.MapEntries = []efi.MemoryDescriptor{
		desc(efi.EfiBootServicesData, 0x100000, 16),
		desc(efi.EfiReservedMemoryType, 0, 1),
	}
	s := newTestSession(fw, DefaultConfig())
	bi := bootinfo.New()
	s.populateBootInfo(bi)

	regions := bi.Regions.Regions()
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1: %v", len(regions), regions)
	}
	checkRegion(t, regions[0], 0x100000, 0x10000, memregion.RegionFree,
		memregion.FlagRead|memregion.FlagWrite)
}

func TestExitRetryRestartsSnapshot(t *testing.T) {
	fw := bootFirmware()
	fw.ExitFailures = 1
	s := newTestSession(fw, DefaultConfig())
	s.populateBootInfo(bootinfo.New())

	if !fw.Exited() {
		t.Fatal("handoff did not recover from one stale map key")
	}
	if got := calls(fw, "ExitBootServices"); got != 2 {
		t.Errorf("got %d exit attempts, want 2", got)
	}
	// Two full rounds of dummy query plus real query.
	if got := calls(fw, "GetMemoryMap"); got != 4 {
		t.Errorf("got %d map queries, want 4", got)
	}
	// The stale map buffer went back exactly once.
	if fw.FreedPages != 1 {
		t.Errorf("got %d page frees, want 1", fw.FreedPages)
	}
}

func TestExitFailingPastBoundIsFatal(t *testing.T) {
	fw := bootFirmware()
	fw.ExitFailures = 2
	s := newTestSession(fw, DefaultConfig())

	rec := fw.CatchReset(func() {
		s.populateBootInfo(bootinfo.New())
	})
	if rec == nil {
		t.Fatal("second exit failure did not reset the platform")
	}
	if rec.Type != efi.ResetShutdown {
		t.Errorf("got reset type %d, want shutdown", rec.Type)
	}
	if fw.Exited() {
		t.Error("boot services marked down after a failed handoff")
	}
	// The first failure freed the stale buffer; the second aborted with
	// no further boot service traffic at all.
	if fw.FreedPages != 1 {
		t.Errorf("got %d page frees, want 1", fw.FreedPages)
	}
	last := -1
	for i, c := range fw.CallLog {
		if c == "ExitBootServices" {
			last = i
		}
	}
	tail := fw.CallLog[last+1:]
	if len(tail) != 1 || tail[0] != "ResetSystem" {
		t.Errorf("calls after the final exit attempt: %v", tail)
	}
}

func TestZeroRetryBudgetFailsWithoutFreeing(t *testing.T) {
	fw := bootFirmware()
	fw.ExitFailures = 1
	cfg := DefaultConfig()
	cfg.ExitRetries = 0
	s := newTestSession(fw, cfg)

	rec := fw.CatchReset(func() {
		s.populateBootInfo(bootinfo.New())
	})
	if rec == nil {
		t.Fatal("exit failure with no retry budget did not reset")
	}
	if fw.FreedPages != 0 {
		t.Errorf("got %d page frees, want 0", fw.FreedPages)
	}
}

func TestArchHooksBracketTheSnapshot(t *testing.T) {
	fw := bootFirmware()
	s := newTestSession(fw, DefaultConfig())

	legacyAfterExit, vectorAfterExit := false, false
	s.archInsertLegacyHiMem = func(*memregion.List) error {
		legacyAfterExit = fw.Exited()
		return nil
	}
	s.archReserveStartupVector = func(*memregion.List) error {
		vectorAfterExit = fw.Exited()
		return nil
	}
	s.populateBootInfo(bootinfo.New())

	if legacyAfterExit {
		t.Error("legacy memory hook ran after boot-service exit")
	}
	if !vectorAfterExit {
		t.Error("startup vector hook ran before boot-service exit")
	}
}

func TestRunHandsOffToKernel(t *testing.T) {
	fw := bootFirmware()
	cfg := DefaultConfig()

	type jumped struct{ bi *bootinfo.BootInfo }
	cfg.Jump = func(bi *bootinfo.BootInfo) {
		panic(jumped{bi})
	}

	defer func() {
		j, ok := recover().(jumped)
		if !ok {
			t.Fatal("Run came back without jumping")
		}
		if !j.bi.Finalized() {
			t.Error("jumped with an unsealed boot record")
		}
		if j.bi != bootinfo.Get() {
			t.Error("jumped with something other than the boot record singleton")
		}
		if !fw.Exited() {
			t.Error("jumped with boot services still up")
		}
		if fw.Cleared != 1 {
			t.Errorf("console cleared %d times, want 1", fw.Cleared)
		}
	}()
	Run(fw.ImageHandle, fw.SystemTable(), cfg)
}

func TestRunWithoutJumpResets(t *testing.T) {
	fw := bootFirmware()
	rec := fw.CatchReset(func() {
		Run(fw.ImageHandle, fw.SystemTable(), DefaultConfig())
	})
	if rec == nil {
		t.Fatal("missing jump target did not reset")
	}
	if calls(fw, "GetMemoryMap") != 0 {
		t.Error("handoff proceeded without a jump target")
	}
}

func TestDiagnosticsReachFirmwareConsole(t *testing.T) {
	fw := bootFirmware()
	s := newTestSession(fw, DefaultConfig())

	s.consoleSink("staging 3 payloads\n")
	if len(fw.Console) == 0 {
		t.Fatal("nothing reached the console")
	}
	out := fw.Console[len(fw.Console)-1]
	if !strings.Contains(out, "staging 3 payloads") {
		t.Errorf("message mangled: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n") {
		t.Errorf("line ending not CRLF: %q", out)
	}

	// Once boot services are gone the console is gone too.
	before := len(fw.Console)
	s.markExited()
	s.consoleSink("into the void\n")
	if len(fw.Console) != before {
		t.Error("output after exit reached the dead console")
	}
}
