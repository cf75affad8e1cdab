// efisim boots the handoff engine against a simulated machine and
// prints the transcript: what went over the firmware console, what the
// final boot record looks like, and how the firmware was treated along
// the way.  Useful for eyeballing engine changes without a VM in the
// loop.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tty "github.com/mattn/go-tty"

	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/boot/efi/simfw"
	"github.com/ggracechoi/unikraft/src/boot/efistub"
	"github.com/ggracechoi/unikraft/src/lib/bootinfo"
	"github.com/ggracechoi/unikraft/src/lib/memregion"
)

var helpFlag = flag.Bool("h", false, "get usage info")
var ptyFlag = flag.String("p", "", "supply a pseudo TTY to output to")
var cmdlineFlag = flag.String("cmdline", "", "contents of the cmdline file on the boot volume")
var optsFlag = flag.String("opts", "", "boot manager load options (override the cmdline file)")
var initrdFlag = flag.String("initrd", "", "host file to place on the boot volume as the initrd")
var dtbFlag = flag.String("dtb", "", "host file to place on the boot volume as the device tree")
var matFlag = flag.Bool("mat", true, "publish a memory attributes table")
var morFlag = flag.Bool("mor", false, "firmware supports reset attack mitigation")
var exitFailuresFlag = flag.Int("exit-failures", 0, "number of times ExitBootServices fails first")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: efisim [options]\n")
	flag.PrintDefaults()
	os.Exit(1)
}

// buildMachine is a plausible small box: a couple of RAM banks, the
// runtime service ranges, ACPI tables, and the IOAPIC window.
func buildMachine() *simfw.Firmware {
	fw := simfw.New()
	fw.MapEntries = []efi.MemoryDescriptor{
		{Type: efi.EfiConventionalMemory, PhysicalStart: 0x0, NumberOfPages: 0x9F},
		{Type: efi.EfiBootServicesCode, PhysicalStart: 0x100000, NumberOfPages: 0x100},
		{Type: efi.EfiBootServicesData, PhysicalStart: 0x200000, NumberOfPages: 0x100},
		{Type: efi.EfiConventionalMemory, PhysicalStart: 0x300000, NumberOfPages: 0x3D00},
		{Type: efi.EfiRuntimeServicesCode, PhysicalStart: 0x4000000, NumberOfPages: 0x40,
			Attribute: efi.MemoryRuntime},
		{Type: efi.EfiRuntimeServicesData, PhysicalStart: 0x4040000, NumberOfPages: 0x40,
			Attribute: efi.MemoryRuntime},
		{Type: efi.EfiConventionalMemory, PhysicalStart: 0x4080000, NumberOfPages: 0x3F80},
		{Type: efi.EfiACPIReclaimMemory, PhysicalStart: 0x8000000, NumberOfPages: 0x10},
		{Type: efi.EfiACPIMemoryNVS, PhysicalStart: 0x8010000, NumberOfPages: 0x10},
		{Type: efi.EfiMemoryMappedIO, PhysicalStart: 0xFEC00000, NumberOfPages: 1},
	}
	fw.ExitFailures = *exitFailuresFlag
	// The engine allocates well above the static banks.
	if *matFlag {
		fw.MAT = buildMAT()
	}
	if *morFlag {
		fw.SeedVariable(efi.MemoryOnlyResetControlGUID,
			"MemoryOverwriteRequestControl", efi.VariableNonVolatile, []byte{0})
	}
	return fw
}

// buildMAT refines the two runtime ranges the way real firmware does:
// code executable but immutable, data writable but never executable.
func buildMAT() *efi.MemoryAttributesTable {
	entries := []efi.MemoryDescriptor{
		{Type: efi.EfiRuntimeServicesCode, PhysicalStart: 0x4000000, NumberOfPages: 0x40,
			Attribute: efi.MemoryRuntime},
		{Type: efi.EfiRuntimeServicesData, PhysicalStart: 0x4040000, NumberOfPages: 0x40,
			Attribute: efi.MemoryRuntime | efi.MemoryXP},
	}
	stride := efi.DescriptorWireSize + 24
	buf := make([]byte, stride*len(entries))
	for i := range entries {
		b, err := entries[i].MarshalBinary()
		if err != nil {
			log.Fatalf("unable to marshal attribute entry: %v", err)
		}
		copy(buf[i*stride:], b)
	}
	return &efi.MemoryAttributesTable{
		Version:         1,
		NumberOfEntries: uint32(len(entries)),
		DescriptorSize:  uint32(stride),
		Entries:         buf,
	}
}

func loadVolume(fw *simfw.Firmware, cfg *efistub.Config) {
	if *optsFlag != "" {
		u, err := efi.EncodeUTF16(*optsFlag, 4096)
		if err != nil {
			log.Fatalf("unable to encode load options: %v", err)
		}
		fw.LoadOptions = efi.UTF16ToBytes(u)
	}
	if *cmdlineFlag != "" {
		fw.Files[`\EFI\BOOT\cmdline`] = []byte(*cmdlineFlag)
		cfg.CmdlineFile = "cmdline"
	}
	if *initrdFlag != "" {
		data, err := os.ReadFile(*initrdFlag)
		if err != nil {
			log.Fatalf("unable to read %s: %v", *initrdFlag, err)
		}
		fw.Files[`\EFI\BOOT\initrd`] = data
		cfg.InitrdFile = "initrd"
	}
	if *dtbFlag != "" {
		data, err := os.ReadFile(*dtbFlag)
		if err != nil {
			log.Fatalf("unable to read %s: %v", *dtbFlag, err)
		}
		fw.Files[`\EFI\BOOT\board.dtb`] = data
		cfg.DevicetreeFile = "board.dtb"
	}
}

// handoff is how the jump target escapes back to the simulator.
type handoff struct {
	bi *bootinfo.BootInfo
}

func runStub(fw *simfw.Firmware, cfg efistub.Config) (bi *bootinfo.BootInfo, rec *simfw.ResetRecord) {
	cfg.Jump = func(b *bootinfo.BootInfo) {
		panic(handoff{bi: b})
	}
	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(handoff)
			if !ok {
				panic(r)
			}
			bi = h.bi
		}
	}()
	rec = fw.CatchReset(func() {
		efistub.Run(fw.ImageHandle, fw.SystemTable(), cfg)
	})
	return
}

func report(w io.Writer, fw *simfw.Firmware, bi *bootinfo.BootInfo, rec *simfw.ResetRecord) {
	fmt.Fprintf(w, "--- firmware console (%d clear) ---\r\n", fw.Cleared)
	for _, line := range fw.Console {
		fmt.Fprint(w, line)
	}
	if rec != nil {
		fmt.Fprintf(w, "--- platform reset: type %d status %s data %q ---\r\n",
			rec.Type, rec.Status, rec.Data)
		return
	}

	fmt.Fprintf(w, "--- boot record: %s via %s ---\r\n", bi.Bootloader, bi.Bootprotocol)
	fmt.Fprintf(w, "system table %#x\r\n", bi.EFISystemTable)
	if bi.Cmdline != 0 {
		mem := fw.Memory(efi.PhysAddr(bi.Cmdline))
		fmt.Fprintf(w, "cmdline      %#x+%d %q\r\n", bi.Cmdline, bi.CmdlineLen, mem[:bi.CmdlineLen])
	}
	if bi.DTB != 0 {
		fmt.Fprintf(w, "device tree  %#x\r\n", bi.DTB)
	}
	bi.Regions.Traverse(func(r *memregion.Region) error {
		fmt.Fprintf(w, "  %s\r\n", r)
		return nil
	})
	fmt.Fprintf(w, "--- firmware treatment ---\r\n")
	fmt.Fprintf(w, "exit attempts %d, page allocs %d (freed %d), pool allocs %d (freed %d)\r\n",
		countCalls(fw, "ExitBootServices"), fw.PageAllocs, fw.FreedPages,
		fw.PoolAllocs, fw.FreedPool)
	fmt.Fprintf(w, "live allocations handed to the kernel: %d\r\n", fw.LiveAllocations())
}

func countCalls(fw *simfw.Firmware, name string) int {
	n := 0
	for _, c := range fw.CallLog {
		if c == name {
			n++
		}
	}
	return n
}

func main() {
	flag.Parse()
	if *helpFlag {
		usage()
	}

	w := io.Writer(os.Stdout)
	if *ptyFlag != "" {
		ttyObj, err := tty.OpenDevice(*ptyFlag)
		if err != nil {
			log.Fatalf("unable to connect to %s: %v", *ptyFlag, err)
		}
		defer ttyObj.Close()
		w = ttyObj.Output()
	}

	cfg := efistub.DefaultConfig()
	cfg.ResetAttackMitigation = *morFlag
	fw := buildMachine()
	loadVolume(fw, &cfg)

	bi, rec := runStub(fw, cfg)
	report(w, fw, bi, rec)
	if rec != nil {
		os.Exit(1)
	}
}
