package shmeap

import (
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/shmalloc/internal/logger"
	"github.com/joshuapare/shmalloc/internal/region"
	"github.com/joshuapare/shmalloc/shmeap/freelist"
)

// state is what initialisation installs: the mapping and the engine over it.
type state struct {
	region *region.Region
	engine *freelist.Heap
}

// provisionFunc maps a region. Tests substitute it to count or fail calls.
type provisionFunc func(Config) (*region.Region, error)

// lazyState provisions the region on first use, exactly once.
//
// Callers racing on first use all block in sync.Once until the winner has
// installed the state; afterwards get is a single atomic load. A failure is
// cached too: provisioning is never retried.
type lazyState struct {
	get   func() (*state, error)
	ready atomic.Bool
}

func newLazyState(cfg Config, provision provisionFunc) *lazyState {
	l := &lazyState{}
	l.get = sync.OnceValues(func() (*state, error) {
		fields := logrus.Fields{
			"size":  humanize.IBytes(uint64(cfg.Size)),
			"base":  cfg.Base,
			"prot":  cfg.Prot,
			"flags": cfg.Flags,
			"path":  cfg.Path,
		}

		r, err := provision(cfg)
		if err != nil {
			logger.L().WithFields(fields).WithError(err).Error("shmeap: provisioning failed")
			return nil, &ProvisionError{Config: cfg, Err: err}
		}

		st := &state{region: r, engine: freelist.NewAt(r.Addr(), r.Len())}
		logger.L().WithFields(fields).
			WithField("addr", r.Addr()).
			WithField("capacity", st.engine.Capacity()).
			Info("shmeap: region provisioned")

		l.ready.Store(true)
		return st, nil
	})
	return l
}

// initialized reports whether the region has been provisioned successfully.
// It never triggers provisioning.
func (l *lazyState) initialized() bool {
	return l.ready.Load()
}
