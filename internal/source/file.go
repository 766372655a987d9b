package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/engine"
)

// Fixture is the YAML layout of an event file.
type Fixture struct {
	Events []chain.Envelope `yaml:"events"`
}

// File is a finite source backed by an in-memory list of deliveries.
type File struct {
	name       string
	deliveries []engine.Delivery
	next       int
	committed  int
}

// OpenFile reads a fixture. Files ending in .yaml or .yml hold an
// "events:" list; .ndjson, .jsonl and .json hold one envelope per line.
// Envelopes that fail to decode become deliveries carrying the error so
// the runner's policy decides what happens to them.
func OpenFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(name, data)
	case ".ndjson", ".jsonl", ".json":
		return parseNDJSON(name, data)
	default:
		return nil, fmt.Errorf("event file %s: unsupported extension (want .yaml, .yml, .ndjson, .jsonl or .json)", name)
	}
}

// FromEnvelopes builds a source from envelopes already in memory.
func FromEnvelopes(name string, envs []chain.Envelope) *File {
	f := &File{name: name}
	for i, env := range envs {
		f.add(fmt.Sprintf("%s#%d", name, i), env)
	}
	return f
}

func parseYAML(name string, data []byte) (*File, error) {
	var fx Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return FromEnvelopes(name, fx.Events), nil
}

func parseNDJSON(name string, data []byte) (*File, error) {
	f := &File{name: name}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		ref := fmt.Sprintf("%s:%d", name, line)

		var env chain.Envelope
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&env); err != nil {
			f.deliveries = append(f.deliveries, engine.Delivery{Err: &chain.DecodeError{Err: err}, Ref: ref})
			continue
		}
		f.add(ref, env)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return f, nil
}

func (f *File) add(ref string, env chain.Envelope) {
	ev, err := chain.Decode(env)
	f.deliveries = append(f.deliveries, engine.Delivery{Event: ev, Err: err, Ref: ref})
}

// Len is the number of deliveries in the file.
func (f *File) Len() int {
	return len(f.deliveries)
}

// Fetch returns the next deliveries and io.EOF with the last batch.
func (f *File) Fetch(_ context.Context, limit int) ([]engine.Delivery, error) {
	if limit <= 0 {
		limit = len(f.deliveries)
	}
	end := min(f.next+limit, len(f.deliveries))
	batch := f.deliveries[f.next:end]
	f.next = end
	if f.next == len(f.deliveries) {
		return batch, io.EOF
	}
	return batch, nil
}

// Commit records how far the runner got.
func (f *File) Commit(context.Context) error {
	f.committed = f.next
	return nil
}

// Committed is the number of deliveries covered by a commit.
func (f *File) Committed() int {
	return f.committed
}

var _ engine.Source = (*File)(nil)
