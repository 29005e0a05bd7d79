// Package options defines the contract shared by the option groups of the
// command and helpers to combine them.
package options

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option group.
type IOptions interface {
	// Validate returns every problem found, not just the first.
	Validate() []error

	// AddFlags registers the group's flags, optionally under prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// Join builds a flag name prefix: Join("a", "b") is "a.b." and Join() is "".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// ValidateAll validates each group and joins the errors.
func ValidateAll(groups ...IOptions) error {
	var errs []error
	for _, g := range groups {
		errs = append(errs, g.Validate()...)
	}
	return errors.Join(errs...)
}
