package app

import "github.com/kart-io/version"

// GetVersion returns the git version stamped into the binary at build time
// through github.com/kart-io/version ldflags.
func GetVersion() string {
	return version.Get().GitVersion
}
