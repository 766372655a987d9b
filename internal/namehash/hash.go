package namehash

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultTLD is the top-level label the registrar issues names under.
const DefaultTLD = "nom"

// DefaultRoot is NameHash(DefaultTLD), the parent node of every
// registrar-issued domain.
var DefaultRoot = common.HexToHash("0xa4651816c31c95504abf8cae41e6338ac7c665df8b7c0c1f5c29fc1daf91e034")

// NameHash computes the EIP-137 node of a dotted name. The empty name maps
// to the zero node.
func NameHash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = Subnode(node, LabelHash(labels[i]))
	}
	return node
}

// LabelHash returns keccak256 of a single plain label.
func LabelHash(label string) common.Hash {
	return crypto.Keccak256Hash([]byte(label))
}

// Subnode returns keccak256(node || label).
func Subnode(node, label common.Hash) common.Hash {
	return crypto.Keccak256Hash(node.Bytes(), label.Bytes())
}

// DomainID returns the hex identifier of the domain that label names
// under root.
func DomainID(root, label common.Hash) string {
	return Subnode(root, label).Hex()
}
