package rcmap

import "bytes"

import "github.com/sirgallo/rcmap/common/murmur"

// levelHash computes the hash driving index selection at the given trie
// level. The seed is reseeded every HashChunks levels so a hash collision
// that persists across one seed's worth of levels is broken by rehashing
// the full key with fresh entropy, rather than looping forever on the same
// bits (§4.2).
func levelHash(key []byte, level int) uint32 {
	return murmur.Murmur32(key, seedForLevel(level))
}

// allocInternal returns an empty internal node, preferring a recycled one
// from the node pool over a fresh heap allocation.
func (m *Map) allocInternal() *node {
	n := m.pool.get()
	n.isLeaf = false
	n.bitmap = 0
	n.key = nil
	n.value = nil
	n.children = []*node{}

	return n
}

// allocLeaf returns a leaf node wrapping key/value, preferring a recycled
// node from the pool.
func (m *Map) allocLeaf(key, value []byte) *node {
	n := m.pool.get()
	n.isLeaf = true
	n.bitmap = 0
	n.key = key
	n.value = value
	n.children = nil

	return n
}

// cloneNode clones a node into a pool-recycled slot so a trie operation can
// modify the clone in place before publishing it, leaving the original (and
// every reader currently walking it) untouched. The children slice is a
// fresh backing array so mutating cp.children never aliases n.children; the
// *node pointers it holds are shared by reference with every sibling
// subtree that the update does not touch.
func (m *Map) cloneNode(n *node) *node {
	cp := m.pool.get()
	cp.isLeaf = n.isLeaf
	cp.bitmap = n.bitmap
	cp.key = n.key
	cp.value = n.value
	cp.children = make([]*node, len(n.children))

	copy(cp.children, n.children)
	return cp
}

// putInto returns a new node representing n updated with (key, value) at
// this subtree, per §4.4. Only nodes on the root-to-leaf path are newly
// allocated; every sibling subtree untouched by this key is shared by
// reference with the previous version of the trie. Every node this call
// supersedes - n itself, and any leaf it discards outright - is appended to
// garbage so the caller can hand it to the reclaimer once the new root
// publishes successfully.
func (m *Map) putInto(n *node, key, value []byte, level int, garbage *[]*node) *node {
	hash := levelHash(key, level)
	index := sparseIndex(hash, level)

	cp := m.cloneNode(n)
	*garbage = append(*garbage, n)

	if !isSet(cp.bitmap, index) {
		pos := densePosition(cp.bitmap, index)
		cp.bitmap = setBit(cp.bitmap, index)
		cp.children = insertChildAt(cp.children, pos, m.allocLeaf(key, value))

		return cp
	}

	pos := densePosition(cp.bitmap, index)
	child := cp.children[pos]

	switch {
	case child.isLeaf && bytes.Equal(key, child.key):
		// equal-key collision: overwrite in place, no structural change (§3 invariant 4).
		cp.children[pos] = m.allocLeaf(key, value)
		*garbage = append(*garbage, child)

	case child.isLeaf:
		// distinct keys landing in the same slot: split into a fresh internal
		// node holding both leaves, recursing a level deeper until their
		// hashes diverge (§3 invariant 5). The original leaf's data is copied
		// into a brand new leaf inside split, so the original is garbage too.
		split := m.allocInternal()
		split = m.putInto(split, child.key, child.value, level+1, garbage)
		split = m.putInto(split, key, value, level+1, garbage)
		cp.children[pos] = split
		*garbage = append(*garbage, child)

	default:
		// internal child: recurse, and always replace the slot with whatever
		// the recursive call rebuilt - dropping this assignment silently
		// discards the rebuilt subtree (§9 design note c).
		cp.children[pos] = m.putInto(child, key, value, level+1, garbage)
	}

	return cp
}

// getFrom descends the trie for key without allocating or mutating
// anything, per §4.6. It returns the value and true if key is present, or
// nil and false if absent at any point along the path.
func getFrom(n *node, key []byte, level int) ([]byte, bool) {
	hash := levelHash(key, level)
	index := sparseIndex(hash, level)

	if !isSet(n.bitmap, index) {
		return nil, false
	}

	pos := densePosition(n.bitmap, index)
	child := n.children[pos]

	if child.isLeaf {
		if bytes.Equal(key, child.key) {
			return child.value, true
		}

		return nil, false
	}

	return getFrom(child, key, level+1)
}

// delFrom returns either a new node reflecting key's deletion from this
// subtree, or (nil, false) meaning key is absent at this subtree - the
// caller must not retry on absence, just report no-op (§9 design note d).
// It only pulls a node from the pool (via cloneNode) once it has confirmed
// key is actually present in this subtree, so a descent into an absent key
// never pulls and discards pool nodes along the way.
func (m *Map) delFrom(n *node, key []byte, level int, garbage *[]*node) (*node, bool) {
	hash := levelHash(key, level)
	index := sparseIndex(hash, level)

	if !isSet(n.bitmap, index) {
		return nil, false
	}

	pos := densePosition(n.bitmap, index)
	child := n.children[pos]

	if child.isLeaf {
		if !bytes.Equal(key, child.key) {
			return nil, false
		}

		cp := m.cloneNode(n)
		cp.bitmap = clearBit(cp.bitmap, index)
		cp.children = removeChildAt(cp.children, pos)

		*garbage = append(*garbage, n, child)
		return cp, true
	}

	rebuilt, found := m.delFrom(child, key, level+1, garbage)
	if !found {
		return nil, false
	}

	cp := m.cloneNode(n)

	if popcount(rebuilt.bitmap) == 0 {
		// child subtree became empty: collapse this slot entirely rather than
		// leaving a dangling empty internal node in the table. The reference
		// algorithm does not collapse a surviving lone leaf upward (§4.5); it
		// only prunes a now-empty internal node.
		cp.bitmap = clearBit(cp.bitmap, index)
		cp.children = removeChildAt(cp.children, pos)
		*garbage = append(*garbage, rebuilt)
	} else {
		cp.children[pos] = rebuilt
	}

	*garbage = append(*garbage, n)
	return cp, true
}
