//go:build (!cgo || purego) && !darwin && !freebsd && !linux

package native

import (
	"fmt"
	"runtime"

	"github.com/spherical/mudoc/internal/domain"
)

func newBinding(Options) (Binding, error) {
	return nil, domain.ConfigError(fmt.Sprintf("no engine backend for %s without cgo", runtime.GOOS), nil)
}
