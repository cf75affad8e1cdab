package efistub

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/bootinfo"
)

const (
	// absPathPrefix is where well-known boot payloads live on the boot
	// volume.
	absPathPrefix = `\EFI\BOOT\`

	// maxPathLen bounds path conversion to UTF-16.  Exceeding it is
	// fatal, never truncated.
	maxPathLen = 4096

	// surplusMemDescCount pads the memory map allocation.  The call
	// after the dummy query must have room for more descriptors than
	// the dummy reported, because allocating the map buffer itself can
	// perturb the map.  Two to four is usually enough; use ten.
	surplusMemDescCount = 10

	// maxConsoleChunk is how many runes of a diagnostic line go to the
	// firmware console per OutputString call.
	maxConsoleChunk = 128

	bootloaderName   = "EFI_STUB"
	bootProtocolName = "EFI"
)

// Config is the compile-time shape of one build of the boot stub.
type Config struct {
	// Well-known file names under \EFI\BOOT\ on the boot volume.
	// Empty disables the corresponding payload.
	CmdlineFile    string
	InitrdFile     string
	DevicetreeFile string

	// ResetAttackMitigation asks the firmware to overwrite memory on
	// reset (TCG Platform Reset Attack Mitigation) when supported.
	ResetAttackMitigation bool

	// HavePaging selects the allocation strategy: with dynamic address
	// translation any page will do, without it allocations must land
	// at or below AllocCeiling so the early identity mapping covers
	// them.
	HavePaging   bool
	AllocCeiling efi.PhysAddr

	// ExitRetries bounds how often a failed boot-service exit restarts
	// the snapshot protocol.  Bounded, then fatal.
	ExitRetries int

	// Jump hands the finalized boot record to the next stage.  It must
	// not return.
	Jump func(*bootinfo.BootInfo)
}

// defaultAllocCeiling is the top of the early-boot reserved window set
// up by the image loader, the highest address known to be mapped before
// paging is configured.
const defaultAllocCeiling = efi.PhysAddr(0x40000000)

// DefaultConfig mirrors the defaults the stub is normally built with.
func DefaultConfig() Config {
	return Config{
		HavePaging:   true,
		AllocCeiling: defaultAllocCeiling,
		ExitRetries:  1,
	}
}
