package rcmap

import "sync"
import "sync/atomic"

import "github.com/sirgallo/utils"

// nodePool recycles discarded *node values instead of leaving every one of
// them to garbage collection, mirroring the teacher's NodePool.go recycling
// discipline. Unlike that pool, nodes only ever re-enter circulation once
// the reclaimer (below) has proven no reader could still be walking them.
type nodePool struct {
	pool *sync.Pool
}

func newNodePool() *nodePool {
	return &nodePool{
		pool: &sync.Pool{New: func() interface{} { return &node{} }},
	}
}

// get returns a zeroed node ready for a caller to populate, reusing a
// retired node's allocation when one is available.
func (np *nodePool) get() *node {
	return np.pool.Get().(*node)
}

// put resets n and returns it to the pool. Callers must only call put on
// nodes that are provably unreachable from every live root snapshot - see
// reclaimer below.
func (np *nodePool) put(n *node) {
	np.pool.Put(resetNode(n))
}

func resetNode(n *node) *node {
	n.isLeaf = false
	n.bitmap = utils.GetZero[uint32]()
	n.key = utils.GetZero[[]byte]()
	n.value = utils.GetZero[[]byte]()
	n.children = nil

	return n
}

// reclaimer implements a quiescence-based safe memory reclamation scheme
// (§5): every traversal, read or write, pins itself with enter/exit around
// a single active-participant counter. A writer that wins its CAS hands the
// nodes it just superseded to retire, which only returns them to the node
// pool once that counter shows no participant pinned besides the retiring
// writer itself - i.e. once every participant that could still be mid-walk
// of a now-superseded snapshot has departed.
//
// An earlier version of this scheme pinned readers to one of two
// generations and freed a generation once only *that* generation's count
// hit zero. That is unsound: the generation a reader pins to can advance
// past the generation a writer retired into while the writer is still
// assembling its update, so a reader pinned to the newer generation can
// still be walking a root a writer is about to supersede and retire - the
// retiring writer's generation reaching zero says nothing about readers
// pinned to a later generation holding the very same pointers. Collapsing
// to one counter and one limbo bag removes the generation mismatch
// entirely: nothing is freed while anything other than the retiring writer
// is pinned.
type reclaimer struct {
	mu     sync.Mutex
	active int64
	limbo  []*node
	pool   *nodePool
}

func newReclaimer(pool *nodePool) *reclaimer {
	return &reclaimer{pool: pool}
}

// enter pins the calling goroutine for the duration of a traversal.
func (r *reclaimer) enter() {
	atomic.AddInt64(&r.active, 1)
}

// exit unpins the calling goroutine.
func (r *reclaimer) exit() {
	atomic.AddInt64(&r.active, -1)
}

// retire hands off nodes that a successful CAS just made unreachable from
// the live root. If garbage is empty, retire is a no-op beyond the
// opportunistic sweep. The caller must still be pinned (enter called, exit
// not yet called) when it calls retire, since the sweep below counts the
// caller's own participation as exactly one of active.
func (r *reclaimer) retire(garbage []*node) {
	if len(garbage) > 0 {
		r.mu.Lock()
		r.limbo = append(r.limbo, garbage...)
		r.mu.Unlock()
	}

	r.tryReclaim()
}

// tryReclaim opportunistically drains limbo once no participant other than
// the retiring caller is pinned. The caller's own pin counts for one in
// active; it has finished its traversal and already published past every
// node in limbo, so it cannot be walking any of them. It never blocks: if
// another goroutine already holds the sweep, or any other participant is
// still pinned, this call simply returns and leaves the garbage in limbo
// for a later retire to pick up.
func (r *reclaimer) tryReclaim() {
	if !r.mu.TryLock() {
		return
	}
	defer r.mu.Unlock()

	if atomic.LoadInt64(&r.active) > 1 || len(r.limbo) == 0 {
		return
	}

	garbage := r.limbo
	r.limbo = nil

	for _, n := range garbage {
		r.pool.put(n)
	}
}
