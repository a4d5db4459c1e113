// Package stat exposes inode metadata in the shape debugging/tooling
// code expects, mirroring the established stat package's private-field
// + accessor-method convention (stat/stat.go's Wdev/Wino/Wmode/Wsize).
// There is no stat/fstat syscall in the dispatch table; this is
// ambient plumbing for cmd/kstat and tests.
package stat

import "defs"

// Stat_t is a snapshot of an inode's identity and metadata.
type Stat_t struct {
	wdev int
	wino defs.Ino_t
	wmode defs.Mode_t
	wsize uint64
}

// New builds a Stat_t from the given fields.
func New(dev int, ino defs.Ino_t, mode defs.Mode_t, size uint64) Stat_t {
	return Stat_t{wdev: dev, wino: ino, wmode: mode, wsize: size}
}

func (s Stat_t) Dev() int { return s.wdev }
func (s Stat_t) Ino() defs.Ino_t { return s.wino }
func (s Stat_t) Mode() defs.Mode_t { return s.wmode }
func (s Stat_t) Size() uint64 { return s.wsize }
func (s Stat_t) IsDir() bool { return s.wmode.IsDir() }
