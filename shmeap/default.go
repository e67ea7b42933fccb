package shmeap

import (
	"sync"

	"github.com/joshuapare/shmalloc/internal/logger"
)

var defaultHeap = sync.OnceValue(func() *Heap {
	cfg, err := ConfigFromEnv(DefaultConfig())
	if err != nil {
		logger.L().WithError(err).Warn("shmeap: ignoring SHMEAP_* overrides")
		cfg = DefaultConfig()
	}
	return New(cfg)
})

// Default returns the process-wide heap.
//
// It is built once from DefaultConfig with SHMEAP_* environment overrides
// applied, maps its region on first allocation, and is never closed.
func Default() *Heap {
	return defaultHeap()
}
