package chain

import "fmt"

// Position orders logs: block number first, then log index within the block.
type Position struct {
	Block    uint64 `json:"block_number"`
	LogIndex uint   `json:"log_index"`
}

// Less reports whether p comes strictly before o.
func (p Position) Less(o Position) bool {
	if p.Block != o.Block {
		return p.Block < o.Block
	}
	return p.LogIndex < o.LogIndex
}

func (p Position) String() string {
	return fmt.Sprintf("%d/%d", p.Block, p.LogIndex)
}
