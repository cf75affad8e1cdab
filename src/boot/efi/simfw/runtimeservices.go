package simfw

import (
	"github.com/ggracechoi/unikraft/src/boot/efi"
)

// runtimeServices adapts Firmware to efi.RuntimeServices.  These stay
// callable after boot-service exit.
type runtimeServices Firmware

func (rs *runtimeServices) fw() *Firmware { return (*Firmware)(rs) }

func (rs *runtimeServices) GetVariable(name []uint16, guid efi.GUID) ([]byte, uint32, efi.Status) {
	fw := rs.fw()
	fw.call("GetVariable")
	if fw.VariableStoreBroken {
		return nil, 0, efi.Unsupported
	}
	key := varKey(guid, efi.DecodeUTF16(name))
	data, ok := fw.Variables[key]
	if !ok {
		return nil, 0, efi.NotFound
	}
	out := append([]byte{}, data...)
	return out, fw.VarAttrs[key], efi.Success
}

func (rs *runtimeServices) SetVariable(name []uint16, guid efi.GUID, attrs uint32, data []byte) efi.Status {
	fw := rs.fw()
	fw.call("SetVariable")
	fw.SetVarCalls++
	if fw.VariableStoreBroken {
		return efi.Unsupported
	}
	key := varKey(guid, efi.DecodeUTF16(name))
	fw.Variables[key] = append([]byte{}, data...)
	fw.VarAttrs[key] = attrs
	return efi.Success
}

func (rs *runtimeServices) ResetSystem(rt efi.ResetType, st efi.Status, data []byte) {
	fw := rs.fw()
	fw.call("ResetSystem")
	panic(ResetRecord{Type: rt, Status: st, Data: string(data)})
}
