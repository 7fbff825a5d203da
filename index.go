package rcmap

import "math/bits"

// BitChunkSize is the number of bits consumed from a hash at each trie
// level: 5 bits gives a branching factor of 32, matching the 32-bit bitmap.
const BitChunkSize = 5

// slots is the number of logical slots in a node's bitmap, 2^BitChunkSize.
const slots = 1 << BitChunkSize

// HashChunks is the number of 5-bit slices extractable from a single 32 bit
// hash before the hash must be reseeded and recomputed: 32 / 5 = 6.
const HashChunks = 32 / BitChunkSize

// seedForLevel determines which murmur seed to use for a given trie level.
// Every HashChunks levels, the hash is reseeded and recomputed over the full
// key, producing fresh entropy once the prior seed's 5-bit slices are
// exhausted.
func seedForLevel(level int) uint32 {
	chunk := level / HashChunks
	return uint32(chunk + 1)
}

// sparseIndex returns the 5-bit slot index in [0, 31] that a hash maps to at
// the given trie level. Level is first reduced modulo HashChunks since a
// hash only carries HashChunks worth of distinct 5-bit slices before it must
// be recomputed with a new seed.
func sparseIndex(hash uint32, level int) int {
	stage := level % HashChunks
	shift := slots - BitChunkSize*(stage+1)
	mask := uint32(slots - 1)

	return int(hash>>shift) & int(mask)
}

// densePosition returns the offset into a node's compacted children table
// for a given sparse index: the number of bits set in bitmap below index.
func densePosition(bitmap uint32, index int) int {
	mask := uint32(1<<uint(index)) - 1
	return popcount(bitmap & mask)
}

// popcount returns the Hamming weight (count of set bits) of a bitmap.
func popcount(bitmap uint32) int {
	return bits.OnesCount32(bitmap)
}
