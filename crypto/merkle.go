// Sorted-pair binary Merkle trees for dataset commitments.
//
// A dataset is committed by hashing every record into a leaf and building
// a binary tree where each internal node is the Keccak-256 hash of its two
// children concatenated in lexicographic order. Sorting the pair before
// hashing makes inclusion proofs position-free: a proof is just the list
// of sibling hashes from leaf to root, with no left/right tagging.
//
// When a level has an odd number of nodes the last node is carried up to
// the next level unchanged, so proofs for different leaves of the same
// tree may have different lengths.
package crypto

import (
	"bytes"
	"errors"

	"github.com/evalchain/evalchain/core/types"
)

// Merkle errors.
var (
	// ErrEmptyLeafSet is returned when building a tree from no leaves.
	ErrEmptyLeafSet = errors.New("merkle: empty leaf set")

	// ErrLeafIndexRange is returned when requesting a proof for a leaf
	// position outside the tree.
	ErrLeafIndexRange = errors.New("merkle: leaf index out of range")

	// ErrProofElementSize is returned by DecodeProof when a proof element
	// is not exactly 32 bytes. This is a malformed-encoding error, distinct
	// from a well-formed proof that fails to reconstruct the root.
	ErrProofElementSize = errors.New("merkle: proof element is not 32 bytes")
)

// HashLeaf hashes one raw dataset record into its leaf value.
func HashLeaf(record []byte) types.Hash {
	return Keccak256Hash(record)
}

// hashPair combines two nodes into their parent, sorting the pair before
// concatenation so verification never needs position information.
func hashPair(a, b types.Hash) types.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return Keccak256Hash(a[:], b[:])
}

// MerkleTree is a complete sorted-pair binary Merkle tree over an ordered
// leaf set. It is immutable after construction.
type MerkleTree struct {
	// levels[0] is the leaf level; levels[len-1] has exactly one node,
	// the root.
	levels [][]types.Hash
}

// NewMerkleTree builds a tree from the given leaf hashes. The leaf order
// is fixed by the caller and committed by the resulting root.
func NewMerkleTree(leaves []types.Hash) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyLeafSet
	}

	level := make([]types.Hash, len(leaves))
	copy(level, leaves)
	levels := [][]types.Hash{level}

	for len(level) > 1 {
		next := make([]types.Hash, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, hashPair(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			// Odd node out: carried up unchanged.
			next = append(next, level[len(level)-1])
		}
		levels = append(levels, next)
		level = next
	}

	return &MerkleTree{levels: levels}, nil
}

// Root returns the tree's root hash, the value committed on the ledger.
func (t *MerkleTree) Root() types.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// NumLeaves returns the number of leaves the tree was built from.
func (t *MerkleTree) NumLeaves() int {
	return len(t.levels[0])
}

// Leaf returns the leaf hash at the given position.
func (t *MerkleTree) Leaf(index int) (types.Hash, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return types.Hash{}, ErrLeafIndexRange
	}
	return t.levels[0][index], nil
}

// Proof returns the inclusion proof for the leaf at the given position:
// the ordered sibling hashes from the leaf level up to (but excluding)
// the root. Levels where the node was carried up without a sibling
// contribute no proof element.
func (t *MerkleTree) Proof(index int) ([]types.Hash, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, ErrLeafIndexRange
	}

	var proof []types.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof, nil
}

// VerifyProof reports whether proof demonstrates that leaf is included in
// the tree committed by root. It folds the sibling hashes into the leaf
// with sorted-pair hashing and compares the result against root.
//
// Verification is stateless and deterministic: identical inputs always
// yield identical results, and independent proofs may be verified
// concurrently in any order.
func VerifyProof(root, leaf types.Hash, proof []types.Hash) bool {
	current := leaf
	for _, sibling := range proof {
		current = hashPair(current, sibling)
	}
	return current == root
}

// DecodeProof converts a wire-format proof (one byte slice per sibling)
// into typed hashes. A proof element of the wrong size is a caller-input
// error and yields ErrProofElementSize; DecodeProof never judges whether
// the proof actually matches any root.
func DecodeProof(raw [][]byte) ([]types.Hash, error) {
	proof := make([]types.Hash, len(raw))
	for i, el := range raw {
		if len(el) != types.HashLength {
			return nil, ErrProofElementSize
		}
		copy(proof[i][:], el)
	}
	return proof, nil
}

// EncodeProof converts a typed proof into its wire format. Inverse of
// DecodeProof; used by hosts relaying proofs and by tests.
func EncodeProof(proof []types.Hash) [][]byte {
	raw := make([][]byte, len(proof))
	for i, h := range proof {
		el := make([]byte, types.HashLength)
		copy(el, h[:])
		raw[i] = el
	}
	return raw
}
