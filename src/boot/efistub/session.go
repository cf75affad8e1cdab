package efistub

import (
	"strings"

	"github.com/ggracechoi/unikraft/src/boot/efi"
	"github.com/ggracechoi/unikraft/src/lib/memregion"
	"github.com/ggracechoi/unikraft/src/lib/trust"
)

// crashData is passed to the firmware on a fatal reset so a watching
// host can tell a crash shutdown from a clean one.
const crashData = "efi boot handoff crash"

// Session is one run of the boot stub against one firmware instance.
// It holds the interface pointers pulled out of the system table and
// the small amount of state the handoff accumulates (whether an
// attribute table was found, whether boot services are gone).
type Session struct {
	cfg   Config
	image efi.Handle
	st    *efi.SystemTable
	bs    efi.BootServices
	rs    efi.RuntimeServices

	allocType efi.AllocateType
	allocMax  efi.PhysAddr

	img        *efi.LoadedImage
	matPresent bool
	exited     bool

	// Arch fixup hooks, installed by defaultArchHooks.  Nil means the
	// architecture has nothing to add at that point.
	archInsertLegacyHiMem    func(*memregion.List) error
	archReserveStartupVector func(*memregion.List) error
}

// NewSession wires a session to the given firmware surface and routes
// diagnostics to its text console.
func NewSession(image efi.Handle, st *efi.SystemTable, cfg Config) *Session {
	s := &Session{
		cfg:   cfg,
		image: image,
		st:    st,
		bs:    st.BootServices,
		rs:    st.RuntimeServices,
	}
	if cfg.HavePaging {
		s.allocType = efi.AllocateAnyPages
	} else {
		s.allocType = efi.AllocateMaxAddress
		s.allocMax = cfg.AllocCeiling
	}
	s.defaultArchHooks()
	trust.SetOutput(s.consoleSink)
	trust.SetExitHandler(func(int) {
		s.reset()
	})
	return s
}

// consoleSink adapts log lines to the firmware console: CRLF line
// endings, UTF-16, bounded chunks.
func (s *Session) consoleSink(msg string) {
	if s.exited {
		return
	}
	r := []rune(strings.ReplaceAll(msg, "\n", "\r\n"))
	for len(r) > 0 {
		n := len(r)
		if n > maxConsoleChunk {
			n = maxConsoleChunk
		}
		// A rune is at most two UTF-16 units, plus the terminator.
		chunk, err := efi.EncodeUTF16(string(r[:n]), 2*maxConsoleChunk+1)
		if err != nil {
			return
		}
		s.st.ConOut.OutputString(chunk)
		r = r[n:]
	}
}

// crash reports a protocol violation and resets the platform.  After
// boot services are gone the console is too, so the message is dropped
// and only the reset happens.
func (s *Session) crash(format string, args ...interface{}) {
	if !s.exited {
		trust.Errorf(format, args...)
	}
	s.reset()
}

func (s *Session) reset() {
	s.rs.ResetSystem(efi.ResetShutdown, efi.Success, []byte(crashData))
	panic("platform reset returned")
}

// markExited records that boot services are gone.  From here on the
// only firmware surface left is runtime services, and the only
// diagnostics channel is none.
func (s *Session) markExited() {
	s.exited = true
	trust.SetOutput(trust.Discard)
}

// loadedImage fetches and caches our own loaded-image protocol, the
// source of the boot device handle and the load options.
func (s *Session) loadedImage() *efi.LoadedImage {
	if s.img != nil {
		return s.img
	}
	p, st := s.bs.HandleProtocol(s.image, efi.LoadedImageProtocolGUID)
	if st != efi.Success {
		s.crash("no loaded image protocol on our own handle: %s", st)
	}
	img, ok := p.(*efi.LoadedImage)
	if !ok {
		s.crash("loaded image protocol has the wrong shape")
	}
	s.img = img
	return img
}
