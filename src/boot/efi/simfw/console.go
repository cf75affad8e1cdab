package simfw

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
)

// console adapts Firmware to efi.TextOutput.  Output is only legal
// while boot services are up.
type console Firmware

func (c *console) fw() *Firmware { return (*Firmware)(c) }

func (c *console) OutputString(s []uint16) efi.Status {
	fw := c.fw()
	fw.checkServicesUp("OutputString")
	fw.Console = append(fw.Console, efi.DecodeUTF16(s))
	return efi.Success
}

func (c *console) ClearScreen() efi.Status {
	fw := c.fw()
	fw.checkServicesUp("ClearScreen")
	fw.Cleared++
	return efi.Success
}
