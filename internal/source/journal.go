package source

import (
	"context"
	"fmt"
	"io"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/engine"
	"github.com/roach88/nomindex/internal/entity"
)

// Journal replays the events a store has already applied, in seq order.
type Journal struct {
	reader entity.Reader
	after  int64
}

// NewJournal reads entries with seq > afterSeq.
func NewJournal(r entity.Reader, afterSeq int64) *Journal {
	return &Journal{reader: r, after: afterSeq}
}

// Fetch returns the next page of the journal, or io.EOF once it is
// exhausted.
func (j *Journal) Fetch(ctx context.Context, limit int) ([]engine.Delivery, error) {
	entries, err := j.reader.Journal(ctx, j.after, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, io.EOF
	}

	out := make([]engine.Delivery, 0, len(entries))
	for _, e := range entries {
		ev, err := chain.Unmarshal(e.Payload)
		out = append(out, engine.Delivery{Event: ev, Err: err, Ref: fmt.Sprintf("journal#%d", e.Seq)})
		j.after = e.Seq
	}
	return out, nil
}

// Commit is a no-op; the journal has no cursor of its own.
func (j *Journal) Commit(context.Context) error {
	return nil
}

// Position is the seq of the last entry handed out.
func (j *Journal) Position() int64 {
	return j.after
}

var _ engine.Source = (*Journal)(nil)
