package rcmap

import "fmt"
import "runtime"
import "sync/atomic"
import "unsafe"

// DefaultMaxKeyLength and DefaultMaxValueLength bound the size of a single
// key or value. They exist purely as a sanity guard at the API boundary;
// the trie itself places no structural limit on key or value length.
const (
	DefaultMaxKeyLength   = 1 << 16
	DefaultMaxValueLength = 1 << 24
)

// Options configures a Map at construction. The zero value is valid and
// fills in every default.
type Options struct {
	// MaxKeyLength and MaxValueLength bound accepted key/value sizes. Zero
	// means "use the default".
	MaxKeyLength   int
	MaxValueLength int
}

func (opts Options) withDefaults() Options {
	if opts.MaxKeyLength <= 0 {
		opts.MaxKeyLength = DefaultMaxKeyLength
	}

	if opts.MaxValueLength <= 0 {
		opts.MaxValueLength = DefaultMaxValueLength
	}

	return opts
}

// Map is a concurrent, unordered associative container mapping opaque byte
// keys to opaque byte values, implemented as a hash array mapped trie with
// copy-on-write updates published through a single compare-and-swap on
// root (§1). The zero value is not usable; construct one with New.
type Map struct {
	root unsafe.Pointer // *node

	opts      Options
	pool      *nodePool
	reclaimer *reclaimer
}

// New constructs an empty Map. The root is an internal node with bitmap 0
// and no children, per §3.
func New(opts Options) *Map {
	opts = opts.withDefaults()
	pool := newNodePool()

	m := &Map{
		opts:      opts,
		pool:      pool,
		reclaimer: newReclaimer(pool),
	}

	atomic.StorePointer(&m.root, unsafe.Pointer(newInternalNode()))

	return m
}

// loadRoot acquire-loads the current root snapshot.
func (m *Map) loadRoot() *node {
	return (*node)(atomic.LoadPointer(&m.root))
}

// Put inserts or overwrites (key, value). It retries the build-then-CAS
// loop of §4.6 until a CAS against the root succeeds, returning true. A
// failed CAS means some other writer published first; this writer discards
// its copied path and rebuilds from the new root.
func (m *Map) Put(key, value []byte) (bool, error) {
	if len(key) > m.opts.MaxKeyLength {
		return false, ErrKeyTooLarge
	}

	if len(value) > m.opts.MaxValueLength {
		return false, ErrValueTooLarge
	}

	attempts := 0

	for {
		m.reclaimer.enter()
		oldRoot := m.loadRoot()

		var garbage []*node
		newRoot := m.putInto(oldRoot, key, value, 0, &garbage)

		if atomic.CompareAndSwapPointer(&m.root, unsafe.Pointer(oldRoot), unsafe.Pointer(newRoot)) {
			m.reclaimer.retire(garbage)
			m.reclaimer.exit()
			return true, nil
		}

		m.reclaimer.exit()

		attempts++
		if attempts%64 == 0 {
			cLog.Debug(fmt.Sprintf("put retried %d times under contention for key of length %d", attempts, len(key)))
		}

		runtime.Gosched()
	}
}

// Get returns the current value for key and true if present, else nil and
// false. Get performs a single acquire-load of the root and descends
// without any CAS or retry, linearizing at the root load (§4.6).
func (m *Map) Get(key []byte) ([]byte, bool) {
	m.reclaimer.enter()
	defer m.reclaimer.exit()

	root := m.loadRoot()
	return getFrom(root, key, 0)
}

// Delete removes key if present. It returns true once a CAS publishes the
// removal, or false immediately if key was never present - there is no
// retry-on-absence (§9 design note d): absence is a stable fact about the
// snapshot just observed, not a transient CAS failure.
func (m *Map) Delete(key []byte) (bool, error) {
	attempts := 0

	for {
		m.reclaimer.enter()
		oldRoot := m.loadRoot()

		var garbage []*node
		newRoot, found := m.delFrom(oldRoot, key, 0, &garbage)
		if !found {
			m.reclaimer.exit()
			return false, nil
		}

		if atomic.CompareAndSwapPointer(&m.root, unsafe.Pointer(oldRoot), unsafe.Pointer(newRoot)) {
			m.reclaimer.retire(garbage)
			m.reclaimer.exit()
			return true, nil
		}

		m.reclaimer.exit()

		attempts++
		if attempts%64 == 0 {
			cLog.Debug(fmt.Sprintf("delete retried %d times under contention for key of length %d", attempts, len(key)))
		}

		runtime.Gosched()
	}
}
