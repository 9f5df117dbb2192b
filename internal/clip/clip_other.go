//go:build !linux && !darwin && !windows

package clip

// New returns a no-op backend for platforms without clipboard support.
func New() Backend {
	return headlessBackend{}
}
