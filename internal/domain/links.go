package domain

import "sync/atomic"

// RefCount is an atomic link count used by every shareable structure: domains,
// plane domains, value tables, property lists and objects. A count of zero
// means the structure has been released, or was never handed out by a
// constructor.
//
// RefCount is safe for concurrent use.
type RefCount struct {
	n atomic.Int32
}

// Init sets the count to one, the link owned by whoever called the
// constructor.
func (r *RefCount) Init() { r.n.Store(1) }

// Acquire adds a link.
func (r *RefCount) Acquire() { r.n.Add(1) }

// Release drops one link and reports whether it was the last one. Releasing
// a structure whose count is already zero is a no-op that returns false.
func (r *RefCount) Release() bool {
	for {
		cur := r.n.Load()
		if cur <= 0 {
			return false
		}
		if r.n.CompareAndSwap(cur, cur-1) {
			return cur == 1
		}
	}
}

// Count reports the number of outstanding links.
func (r *RefCount) Count() int32 { return r.n.Load() }

// Released reports whether every link has been dropped.
func (r *RefCount) Released() bool { return r.n.Load() <= 0 }
