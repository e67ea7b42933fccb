package shmeap

import "github.com/joshuapare/shmalloc/internal/region"

// Config describes the region backing a heap. See region.Config for the
// field semantics; it is aliased here so callers never import internal/.
type Config = region.Config

// Prot, MapFlag and Access are the bitsets and modes used in Config.
type (
	Prot    = region.Prot
	MapFlag = region.MapFlag
	Access  = region.Access
)

const (
	ProtNone  = region.ProtNone
	ProtRead  = region.ProtRead
	ProtWrite = region.ProtWrite
	ProtExec  = region.ProtExec
)

const (
	MapShared         = region.MapShared
	MapPrivate        = region.MapPrivate
	MapAnonymous      = region.MapAnonymous
	MapFixed          = region.MapFixed
	MapFixedNoReplace = region.MapFixedNoReplace
	MapNoReserve      = region.MapNoReserve
	MapPopulate       = region.MapPopulate
)

const (
	AccessDefault   = region.AccessDefault
	AccessReadOnly  = region.AccessReadOnly
	AccessReadWrite = region.AccessReadWrite
)

// DefaultSize is the region size used by DefaultConfig: 16 MiB.
const DefaultSize = 1 << 24

// DefaultConfig returns a shared, anonymous, read-write region of
// DefaultSize bytes placed wherever the OS chooses.
func DefaultConfig() Config {
	return Config{
		Size:  DefaultSize,
		Prot:  ProtRead | ProtWrite,
		Flags: MapShared,
	}
}
