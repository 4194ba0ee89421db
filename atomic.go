package fiberpool

import "sync/atomic"

// atomicJobID is a thin wrapper giving atomic.Int64 a JobID-typed API, used
// for each worker descriptor's currently-executing job id.
type atomicJobID struct {
	v atomic.Int64
}

func (a *atomicJobID) Store(id JobID) { a.v.Store(int64(id)) }
func (a *atomicJobID) Load() JobID    { return JobID(a.v.Load()) }

// poolFlags holds the single-writer flag bits (WAIT,
// KILL_N) plus the kill quota, grouped so pool.go and worker.go share one
// small surface instead of poking loose atomics. The worker-count atomics
// live on Pool itself (totalWorkers, workingWorkers).
type poolFlags struct {
	bits      atomic.Uint32
	killQuota atomic.Int64
}

const (
	flagWait  uint32 = 1 << 0
	flagKillN uint32 = 1 << 1
)

func (f *poolFlags) setWait()      { f.bits.Or(flagWait) }
func (f *poolFlags) clearWait()    { f.bits.And(^flagWait) }
func (f *poolFlags) setKillN()     { f.bits.Or(flagKillN) }
func (f *poolFlags) clearKillN()   { f.bits.And(^flagKillN) }
func (f *poolFlags) load() uint32  { return f.bits.Load() }
func (f *poolFlags) isWait() bool  { return f.load()&flagWait != 0 }
func (f *poolFlags) isKillN() bool { return f.load()&flagKillN != 0 }
