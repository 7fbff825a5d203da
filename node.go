package rcmap

// node is the variant record backing every position in the trie. A node is
// either an internal (branch) node, addressed via bitmap and a dense
// children table, or a leaf holding a single key/value pair. Which shape a
// node has is fixed at construction and never changes: a node's bitmap,
// children, key, and value are immutable from the moment it is published as
// a child of some other node (§3 invariant 6).
type node struct {
	isLeaf bool

	// bitmap and children are only meaningful for internal nodes.
	bitmap   uint32
	children []*node

	// key and value are only meaningful for leaf nodes.
	key   []byte
	value []byte
}

// newInternalNode returns an empty internal node: bitmap 0, no children.
func newInternalNode() *node {
	return &node{isLeaf: false, children: []*node{}}
}

// newLeafNode returns a leaf node wrapping the given key/value pair.
func newLeafNode(key, value []byte) *node {
	return &node{isLeaf: true, key: key, value: value}
}

// isSet reports whether the bit at the given sparse index is set in bitmap.
func isSet(bitmap uint32, index int) bool {
	return bitmap&(1<<uint(index)) != 0
}

// setBit returns bitmap with the bit at index forced to 1, regardless of
// its prior state. Unlike a toggle, calling setBit twice is idempotent -
// required so put and delete never have to reason about the bit's current
// value before deciding whether to flip it (§9 design note a).
func setBit(bitmap uint32, index int) uint32 {
	return bitmap | (1 << uint(index))
}

// clearBit returns bitmap with the bit at index forced to 0, regardless of
// its prior state.
func clearBit(bitmap uint32, index int) uint32 {
	return bitmap &^ (1 << uint(index))
}

// insertChildAt returns a new dense children table with child inserted at
// position pos. The new table is sized to the final (post-insert) length,
// not the pre-insert length - a table undersized by one would silently
// truncate whatever is copied into the tail half (§9 design note b).
func insertChildAt(orig []*node, pos int, child *node) []*node {
	newTable := make([]*node, len(orig)+1)

	copy(newTable[:pos], orig[:pos])
	newTable[pos] = child
	copy(newTable[pos+1:], orig[pos:])

	return newTable
}

// removeChildAt returns a new dense children table with the element at pos
// removed, sized to the final (post-remove) length.
func removeChildAt(orig []*node, pos int) []*node {
	newTable := make([]*node, len(orig)-1)

	copy(newTable[:pos], orig[:pos])
	copy(newTable[pos:], orig[pos+1:])

	return newTable
}
