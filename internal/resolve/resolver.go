// Package resolve maps label hashes back to plaintext labels.
//
// The registrar only emits hashes for base registrar events; a label name
// is known when some earlier source (a controller event, a dictionary
// file, a shared Redis hash) has seen the plaintext. Lookups are pure
// apart from the backing data: the same label and the same dictionary
// always give the same answer.
package resolve

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/nomindex/internal/namehash"
)

//go:generate mockgen -source=resolver.go -destination=mocks/mocks.go -package=mocks NameResolver

// NameResolver looks up the plaintext label for a label hash.
type NameResolver interface {
	// NameByHash returns the label and true when it is known. An error
	// means the backing store could not be queried.
	NameByHash(ctx context.Context, label common.Hash) (string, bool, error)
}

// Nop never resolves anything.
type Nop struct{}

func (Nop) NameByHash(context.Context, common.Hash) (string, bool, error) {
	return "", false, nil
}

// Static resolves from an in-memory dictionary.
type Static map[common.Hash]string

// NewStatic hashes each plain label into a dictionary.
func NewStatic(labels ...string) Static {
	s := make(Static, len(labels))
	for _, l := range labels {
		s.Add(l)
	}
	return s
}

// Add inserts a plain label.
func (s Static) Add(label string) {
	s[namehash.LabelHash(label)] = label
}

func (s Static) NameByHash(_ context.Context, label common.Hash) (string, bool, error) {
	name, ok := s[label]
	return name, ok, nil
}

// Chain asks each resolver in turn and returns the first answer.
type Chain []NameResolver

func (c Chain) NameByHash(ctx context.Context, label common.Hash) (string, bool, error) {
	for _, r := range c {
		name, ok, err := r.NameByHash(ctx, label)
		if err != nil || ok {
			return name, ok, err
		}
	}
	return "", false, nil
}
