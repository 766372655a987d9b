package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nomindex/internal/engine"
	"github.com/roach88/nomindex/internal/entity"
	"github.com/roach88/nomindex/internal/source"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Policy string // overrides failure_policy when set
}

// IngestResult is what an ingest run did.
type IngestResult struct {
	File       string               `json:"file"`
	RunID      string               `json:"run_id"`
	Stats      engine.StatsSnapshot `json:"stats"`
	Checkpoint *entity.Checkpoint   `json:"checkpoint"`
	Halted     string               `json:"halted,omitempty"`
}

func (r IngestResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ingested %s (run %s)\n", r.File, r.RunID)
	fmt.Fprintf(&b, "  applied:   %d\n", r.Stats.Applied)
	fmt.Fprintf(&b, "  tolerated: %d\n", r.Stats.Tolerated)
	fmt.Fprintf(&b, "  duplicate: %d\n", r.Stats.Duplicate)
	fmt.Fprintf(&b, "  skipped:   %d\n", r.Stats.Skipped)
	if r.Checkpoint != nil {
		fmt.Fprintf(&b, "  checkpoint: %s (%s)", r.Checkpoint.Position, r.Checkpoint.EventID)
	} else {
		b.WriteString("  checkpoint: none")
	}
	if r.Halted != "" {
		fmt.Fprintf(&b, "\n  halted: %s", r.Halted)
	}
	return b.String()
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Apply a YAML or NDJSON event file to the store",
		Long: `Apply every event in a fixture file, in file order, then print counts.

YAML files hold an "events:" list of envelopes; .ndjson/.jsonl files hold
one envelope per line. Events already applied are reported as duplicates,
so ingesting the same file twice is safe.

Exit codes:
  0 - All events handled
  1 - Runner halted on a failing event (earlier events stay applied)
  2 - Command error

Examples:
  nomindex ingest ./events.yaml
  nomindex ingest --policy skip ./dump.ndjson --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "failure policy override (halt|skip)")
	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Policy != "" {
		cfg.FailurePolicy = opts.Policy
	}

	src, err := source.OpenFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open event file", err)
	}

	runID := opts.newRunID()
	logger := opts.newLogger(cfg.Log, cmd.ErrOrStderr(), runID)
	ctx := commandContext(cmd)

	p, err := newPipeline(ctx, cfg, logger, runID)
	if err != nil {
		return err
	}
	defer p.Close()

	runner, err := p.newRunner(cfg, src)
	if err != nil {
		return err
	}

	out := opts.formatter(cmd)
	out.VerboseLog("ingesting %d deliveries from %s", src.Len(), path)
	runErr := runner.Run(ctx)

	result := IngestResult{File: path, RunID: runID, Stats: runner.Stats()}
	cp, ok, err := p.backend.Checkpoint(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read checkpoint", err)
	}
	if ok {
		result.Checkpoint = &cp
	}

	if runErr != nil {
		if !engine.IsHalt(runErr) {
			return WrapExitError(ExitCommandError, "ingest failed", runErr)
		}
		result.Halted = runErr.Error()
		if err := out.Failure(CodeHalted, "runner halted", result); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "runner halted", runErr)
	}
	return out.Success(result)
}
