//go:build !amd64

package efistub

// Nothing arch-specific to patch into the region list here.
func (s *Session) defaultArchHooks() {}
