package efi

// Status is the closed set of result words firmware calls return.  The
// high bit marks errors, the way the firmware encodes them on 64-bit
// machines.  Callers branch exhaustively on the subset their contract
// promises; any other value is a protocol violation and means the
// firmware can no longer be trusted.
type Status uint64

const statusErr Status = 1 << 63

const (
	Success Status = 0

	LoadError         = statusErr | 1
	InvalidParameter  = statusErr | 2
	Unsupported       = statusErr | 3
	BadBufferSize     = statusErr | 4
	BufferTooSmall    = statusErr | 5
	NotReady          = statusErr | 6
	DeviceError       = statusErr | 7
	WriteProtected    = statusErr | 8
	OutOfResources    = statusErr | 9
	VolumeCorrupted   = statusErr | 10
	NoMedia           = statusErr | 12
	MediaChanged      = statusErr | 13
	NotFound          = statusErr | 14
	AccessDenied      = statusErr | 15
	Timeout           = statusErr | 18
	Aborted           = statusErr | 21
	SecurityViolation = statusErr | 26
	InvalidLanguage   = statusErr | 32
	CompromisedData   = statusErr | 33
)

// Err reports whether the status word carries the error bit.
func (s Status) Err() bool {
	return s&statusErr != 0
}

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case LoadError:
		return "load error"
	case InvalidParameter:
		return "invalid parameter"
	case Unsupported:
		return "unsupported"
	case BadBufferSize:
		return "bad buffer size"
	case BufferTooSmall:
		return "buffer too small"
	case NotReady:
		return "not ready"
	case DeviceError:
		return "device error"
	case WriteProtected:
		return "write protected"
	case OutOfResources:
		return "out of resources"
	case VolumeCorrupted:
		return "volume corrupted"
	case NoMedia:
		return "no media"
	case MediaChanged:
		return "media changed"
	case NotFound:
		return "not found"
	case AccessDenied:
		return "access denied"
	case Timeout:
		return "timeout"
	case Aborted:
		return "aborted"
	case SecurityViolation:
		return "security violation"
	case InvalidLanguage:
		return "invalid language"
	case CompromisedData:
		return "compromised data"
	}
	return "unknown status"
}
