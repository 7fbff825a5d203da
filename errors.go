package rcmap

import "errors"

// ErrKeyTooLarge is returned when a key exceeds MaxKeyLength.
var ErrKeyTooLarge = errors.New("rcmap: key exceeds maximum length")

// ErrValueTooLarge is returned when a value exceeds MaxValueLength.
var ErrValueTooLarge = errors.New("rcmap: value exceeds maximum length")

// ErrCorruptNode indicates a reachable node violated a structural invariant,
// e.g. a bitmap bit set with no corresponding entry in the dense children
// table. This can only happen from a bug in the trie operations themselves;
// it is never caused by caller input.
var ErrCorruptNode = errors.New("rcmap: corrupt trie node")
