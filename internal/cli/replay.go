package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nomindex/internal/engine"
	"github.com/roach88/nomindex/internal/entity"
	"github.com/roach88/nomindex/internal/resolve"
	"github.com/roach88/nomindex/internal/source"
	"github.com/roach88/nomindex/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Scratch string // scratch SQLite path; a temp file when empty
}

// ReplayResult compares the live store with a rebuild from its journal.
type ReplayResult struct {
	Entries       int64          `json:"entries"`
	SourceDigest  string         `json:"source_digest"`
	ReplayDigest  string         `json:"replay_digest"`
	Deterministic bool           `json:"deterministic"`
	SourceCounts  map[string]int `json:"source_counts"`
	ReplayCounts  map[string]int `json:"replay_counts"`
}

func (r ReplayResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Replayed %d journal entries\n", r.Entries)
	fmt.Fprintf(&b, "  source: %s\n", r.SourceDigest)
	fmt.Fprintf(&b, "  replay: %s\n", r.ReplayDigest)
	if r.Deterministic {
		b.WriteString("✓ Snapshot digests match")
		return b.String()
	}
	b.WriteString("✗ Snapshot digests differ\n")
	for _, table := range sortedTables(r.SourceCounts) {
		if r.SourceCounts[table] != r.ReplayCounts[table] {
			fmt.Fprintf(&b, "  %s: source=%d replay=%d\n", table, r.SourceCounts[table], r.ReplayCounts[table])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the journal into a scratch store and compare snapshots",
		Long: `Re-apply every journaled event, in journal order, to an empty SQLite
store and compare its snapshot digest with the configured store.

Exit codes:
  0 - Digests match
  1 - Digests differ, or the journal no longer applies cleanly
  2 - Command error (database not found, etc.)

Examples:
  nomindex replay --config ./nomindex.cue
  nomindex replay --scratch /tmp/rebuild.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scratch, "scratch", "", "path for the rebuilt SQLite store (default: temporary)")
	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	runID := opts.newRunID()
	logger := opts.newLogger(cfg.Log, cmd.ErrOrStderr(), runID)
	ctx := commandContext(cmd)

	p, err := newPipeline(ctx, cfg, logger, runID)
	if err != nil {
		return err
	}
	defer p.Close()

	scratchPath := opts.Scratch
	if scratchPath == "" {
		dir, err := os.MkdirTemp("", "nomindex-replay-")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create scratch dir", err)
		}
		defer os.RemoveAll(dir)
		scratchPath = filepath.Join(dir, "replay.db")
	}
	scratch, err := store.Open(scratchPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open scratch database", err)
	}
	defer scratch.Close()

	root, _ := cfg.Root()
	// Label names come from the journal only, never from the live resolver.
	rebuild := p.newProjector(scratch, root, cfg.DisplaySuffix, resolve.Nop{})
	runner := engine.NewRunner(source.NewJournal(p.backend, 0), rebuild,
		engine.WithPolicy(engine.PolicyHalt),
		engine.WithBatchSize(cfg.Runner.BatchSize),
		engine.WithLogger(logger),
	)

	out := opts.formatter(cmd)
	if err := runner.Run(ctx); err != nil {
		if engine.IsHalt(err) {
			_ = out.Error(CodeDivergence, "journal did not replay cleanly", err.Error())
			return WrapExitError(ExitFailure, "replay halted", err)
		}
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result, err := compareSnapshots(ctx, p.backend, scratch)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compare snapshots", err)
	}
	result.Entries = runner.Stats().Total()

	if !result.Deterministic {
		if err := out.Failure(CodeDivergence, "snapshot digests differ", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "replay diverged")
	}
	return out.Success(result)
}

func compareSnapshots(ctx context.Context, live, rebuilt entity.Reader) (ReplayResult, error) {
	want, err := live.Snapshot(ctx)
	if err != nil {
		return ReplayResult{}, err
	}
	got, err := rebuilt.Snapshot(ctx)
	if err != nil {
		return ReplayResult{}, err
	}
	wd, err := want.Digest()
	if err != nil {
		return ReplayResult{}, err
	}
	gd, err := got.Digest()
	if err != nil {
		return ReplayResult{}, err
	}
	return ReplayResult{
		SourceDigest:  wd,
		ReplayDigest:  gd,
		Deterministic: wd == gd,
		SourceCounts:  want.Counts(),
		ReplayCounts:  got.Counts(),
	}, nil
}
