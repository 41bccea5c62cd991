//go:build unix

package native

import (
	"golang.org/x/sys/unix"

	"github.com/spherical/mudoc/internal/domain"
)

// CString returns a NUL-terminated copy of s for the engine. A string with an
// interior NUL cannot be represented and yields an invalid-input error.
func CString(s string) (*byte, error) {
	p, err := unix.BytePtrFromString(s)
	if err != nil {
		return nil, domain.InvalidInputError("string argument contains a NUL byte", err)
	}
	return p, nil
}
