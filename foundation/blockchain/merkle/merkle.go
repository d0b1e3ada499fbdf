// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree for committing
// to the ordered set of transactions held by a block.
//
// Leaves are the hex digests of the values. Each parent is the digest of the
// hex text of the left child concatenated with the hex text of the right child.
// When a level has an odd number of nodes the last node is paired with itself.
// A tree with a single value has that value's digest as the root and an empty
// tree has the empty string as the root.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
)

// ErrNotFound is returned when the requested value is not a leaf in the tree.
var ErrNotFound = errors.New("unable to find data in tree")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() string
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   string
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) *Tree[T] {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	t.Generate(values)

	return &t
}

// Root is a convenience function that returns the merkle root for the values
// without keeping the tree around.
func Root[T Hashable[T]](values []T) string {
	return NewTree(values).MerkleRoot
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch.
func (t *Tree[T]) Generate(values []T) {
	t.Root = nil
	t.Leafs = nil
	t.MerkleRoot = ""

	if len(values) == 0 {
		return
	}

	var leafs []*Node[T]
	for _, value := range values {
		leafs = append(leafs, &Node[T]{
			Hash:  value.Hash(),
			Value: value,
			leaf:  true,
			Tree:  t,
		})
	}

	if len(leafs) == 1 {
		t.Root = leafs[0]
		t.Leafs = leafs
		t.MerkleRoot = leafs[0].Hash
		return
	}

	if len(leafs)%2 == 1 {
		duplicate := &Node[T]{
			Hash:  leafs[len(leafs)-1].Hash,
			Value: leafs[len(leafs)-1].Value,
			leaf:  true,
			dup:   true,
			Tree:  t,
		}
		leafs = append(leafs, duplicate)
	}

	root := buildIntermediate(leafs, t)

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// data that it currently holds in the leaves.
func (t *Tree[T]) Rebuild() {
	t.Generate(t.Values())
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree. An order of 0 means the proof
// hash comes first in the concatenation, 1 means it comes second.
//
// Given proof = [p0, p1] and order = [1, 0] for the value with digest d:
//
//	h1   = digest(d + p0)
//	root = digest(p1 + h1)
func (t *Tree[T]) Proof(data T) ([]string, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var merkleProof []string
		var order []int64
		nodeParent := node.Parent

		for nodeParent != nil {
			if nodeParent.Left.Hash == node.Hash {
				merkleProof = append(merkleProof, nodeParent.Right.Hash)
				order = append(order, 1) // right leaf, concat second.
			} else {
				merkleProof = append(merkleProof, nodeParent.Left.Hash)
				order = append(order, 0) // left leaf, concat first.
			}
			node = nodeParent
			nodeParent = nodeParent.Parent
		}

		return merkleProof, order, nil
	}

	return nil, nil, ErrNotFound
}

// VerifyProof recomputes the root from a value digest and the proof returned
// by Proof and reports whether it matches the expected root. Pairs are hashed
// with SHA-256, the default strategy of a tree.
func VerifyProof(dataHash string, proof []string, order []int64, root string) bool {
	return VerifyProofWithStrategy(sha256.New, dataHash, proof, order, root)
}

// VerifyProofWithStrategy is VerifyProof for a tree built with
// WithHashStrategy.
func VerifyProofWithStrategy(hashStrategy func() hash.Hash, dataHash string, proof []string, order []int64, root string) bool {
	if len(proof) != len(order) {
		return false
	}

	h := dataHash
	for i, p := range proof {
		switch order[i] {
		case 0:
			h = digest(hashStrategy, p, h)
		default:
			h = digest(hashStrategy, h, p)
		}
	}

	return h == root
}

// Verify validates the hashes at each level of the tree and returns an error
// if the resulting hash at the root of the tree does not match the root hash.
func (t *Tree[T]) Verify() error {
	if t.Root == nil {
		if t.MerkleRoot != "" {
			return errors.New("empty tree has a root hash")
		}
		return nil
	}

	if t.Root.verify() != t.MerkleRoot {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData indicates whether a given piece of data is in the tree and if the
// hashes are valid for that data. The hashes on the critical path between the
// leaf and the root are recalculated and compared.
func (t *Tree[T]) VerifyData(data T) error {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		if node.Hash != data.Hash() {
			return fmt.Errorf("leaf hash does not match data")
		}

		currentParent := node.Parent
		for currentParent != nil {
			calculated := digest(t.hashStrategy, currentParent.Left.CalculateHash(), currentParent.Right.CalculateHash())
			if calculated != currentParent.Hash {
				return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
			}

			currentParent = currentParent.Parent
		}

		return nil
	}

	return ErrNotFound
}

// Values returns a slice of the values stored in the tree in their original
// order, without the padding duplicate.
func (t *Tree[T]) Values() []T {
	var values []T
	for _, node := range t.Leafs {
		if node.dup {
			continue
		}
		values = append(values, node.Value)
	}

	return values
}

// RootHex returns the merkle root which is already a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return t.MerkleRoot
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree[T]) String() string {
	s := ""

	for _, l := range t.Leafs {
		s += fmt.Sprint(l)
		s += "\n"
	}

	return s
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the Merkle tree. Use the Values function to
// return a slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, the data if it is a leaf, and other metadata.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   string
	Value  T
	leaf   bool
	dup    bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() string {
	if n.leaf {
		return n.Value.Hash()
	}

	return digest(n.Tree.hashStrategy, n.Left.verify(), n.Right.verify())
}

// CalculateHash is a helper function that calculates the hash of the node.
func (n *Node[T]) CalculateHash() string {
	if n.leaf {
		return n.Value.Hash()
	}

	return digest(n.Tree.hashStrategy, n.Left.Hash, n.Right.Hash)
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %t %v %v", n.leaf, n.dup, n.Hash, n.Value)
}

// =============================================================================

// buildIntermediate is a helper function that for a given list of nodes,
// constructs the intermediate and root levels of the tree. Returns the
// resulting root node of the tree.
func buildIntermediate[T Hashable[T]](nl []*Node[T], t *Tree[T]) *Node[T] {
	var nodes []*Node[T]

	for i := 0; i < len(nl); i += 2 {
		left, right := i, i+1
		if i+1 == len(nl) {
			right = i
		}

		n := Node[T]{
			Left:  nl[left],
			Right: nl[right],
			Hash:  digest(t.hashStrategy, nl[left].Hash, nl[right].Hash),
			Tree:  t,
		}

		nodes = append(nodes, &n)
		nl[left].Parent = &n
		nl[right].Parent = &n

		if len(nl) == 2 {
			return &n
		}
	}

	return buildIntermediate(nodes, t)
}

// digest hashes the concatenation of the two hex strings.
func digest(hashStrategy func() hash.Hash, left string, right string) string {
	h := hashStrategy()
	h.Write([]byte(left + right))
	return hex.EncodeToString(h.Sum(nil))
}
