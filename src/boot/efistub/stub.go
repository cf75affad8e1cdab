// Package efistub takes a machine from firmware to kernel.  It runs as
// the firmware's last guest: it stages the boot payloads, snapshots the
// memory map, retires boot services, and jumps to the next stage with a
// finalized handoff record.  Everything here happens exactly once per
// boot and never comes back.
package efistub

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/bootinfo"
	"github.com/ggracechoi/unikraft/src/lib/trust"
)

// morVariableName identifies the TCG MemoryOverwriteRequestControl
// variable under MemoryOnlyResetControlGUID.
const morVariableName = "MemoryOverwriteRequestControl"

// Run is the firmware entry point.  It does not return: the configured
// jump takes over on success and a platform reset ends every failure.
func Run(image efi.Handle, st *efi.SystemTable, cfg Config) {
	s := NewSession(image, st, cfg)
	if cfg.Jump == nil {
		s.crash("no next boot stage configured")
	}

	s.st.ConOut.ClearScreen()
	trust.Infof("%s handing off via %s", bootloaderName, bootProtocolName)

	s.enableResetAttackMitigation()

	bi := bootinfo.Get()
	s.populateBootInfo(bi)

	cfg.Jump(bi)
	panic("next boot stage returned")
}

// enableResetAttackMitigation asks the firmware to scrub memory on the
// next reset, so a warm reboot cannot fish secrets out of RAM.  Plenty
// of firmware never heard of the variable; that is fine and we move
// on.  A firmware that knows it but will not take our value is broken
// in a way we refuse to boot on.
func (s *Session) enableResetAttackMitigation() {
	if !s.cfg.ResetAttackMitigation {
		return
	}
	name, err := efi.EncodeUTF16(morVariableName, maxPathLen)
	if err != nil {
		s.crash("unusable variable name: %v", err)
	}
	name = name[:len(name)-1]

	_, _, st := s.rs.GetVariable(name, efi.MemoryOnlyResetControlGUID)
	switch st {
	case efi.NotFound, efi.Unsupported:
		trust.Debugf("firmware does not implement reset attack mitigation")
		return
	case efi.Success, efi.BufferTooSmall:
	default:
		s.crash("failed to query reset mitigation support: %s", st)
	}

	attrs := efi.VariableNonVolatile | efi.VariableBootServiceAccess | efi.VariableRuntimeAccess
	if st = s.rs.SetVariable(name, efi.MemoryOnlyResetControlGUID, attrs, []byte{1}); st != efi.Success {
		s.crash("failed to arm reset attack mitigation: %s", st)
	}
	trust.Infof("reset attack mitigation armed")
}
