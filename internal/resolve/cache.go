package resolve

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize bounds the number of cached labels.
const DefaultCacheSize = 4096

// Observer is notified of each lookup result: "cached", "found", "miss"
// or "error".
type Observer func(result string)

// Cached remembers positive answers from another resolver. Misses are not
// cached so a label added to the backing store later is picked up.
type Cached struct {
	next     NameResolver
	cache    *lru.Cache
	observer Observer
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next NameResolver, size int, observer Observer) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create label cache: %w", err)
	}
	if observer == nil {
		observer = func(string) {}
	}
	return &Cached{next: next, cache: c, observer: observer}, nil
}

func (c *Cached) NameByHash(ctx context.Context, label common.Hash) (string, bool, error) {
	if v, ok := c.cache.Get(label); ok {
		c.observer("cached")
		return v.(string), true, nil
	}
	name, ok, err := c.next.NameByHash(ctx, label)
	if err != nil {
		c.observer("error")
		return "", false, err
	}
	if !ok {
		c.observer("miss")
		return "", false, nil
	}
	c.observer("found")
	c.cache.Add(label, name)
	return name, true, nil
}

// Len returns the number of cached labels.
func (c *Cached) Len() int {
	return c.cache.Len()
}
