package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nomindex/internal/resolve"
)

// LabelsImportResult is the output of labels import.
type LabelsImportResult struct {
	File  string `json:"file"`
	Key   string `json:"key"`
	Read  int    `json:"read"`
	Added int64  `json:"added"`
}

func (r LabelsImportResult) String() string {
	return fmt.Sprintf("Imported %s into %s: %d labels read, %d new", r.File, r.Key, r.Read, r.Added)
}

// NewLabelsCommand creates the labels command group.
func NewLabelsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Manage the shared label dictionary",
	}
	cmd.AddCommand(newLabelsImportCommand(rootOpts))
	return cmd
}

func newLabelsImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a YAML label list into Redis",
		Long: `Hash every label in a YAML dictionary ("labels:" list) and store
labelhash -> label in the configured Redis hash, so running indexers can
resolve base registrar events to names.

Example:
  NOMINDEX_RESOLVER_REDIS_URL=redis://localhost:6379/0 nomindex labels import ./labels.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Resolver.RedisURL == "" {
				return NewExitError(ExitCommandError, "resolver.redis_url is not configured")
			}

			dict, err := resolve.LoadDictionary(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load label dictionary", err)
			}

			ctx := commandContext(cmd)
			r, err := resolve.DialRedis(ctx, cfg.Resolver.RedisURL, resolve.WithRedisKey(cfg.Resolver.RedisKey))
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to connect to redis", err)
			}
			defer r.Close()

			added, err := r.Put(ctx, dict.Labels...)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to store labels", err)
			}
			return rootOpts.formatter(cmd).Success(LabelsImportResult{
				File:  args[0],
				Key:   cfg.Resolver.RedisKey,
				Read:  len(dict.Labels),
				Added: added,
			})
		},
	}
}
