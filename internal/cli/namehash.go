package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nomindex/internal/namehash"
)

// NamehashResult is the output of the namehash command.
type NamehashResult struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
	Node       string `json:"node"`
	LabelHash  string `json:"label_hash"`
	TokenID    string `json:"token_id"`
	DomainID   string `json:"domain_id"`
}

func (r NamehashResult) String() string {
	return fmt.Sprintf(`%s
  node:       %s
  label hash: %s
  token id:   %s
  domain id:  %s`, r.Normalized, r.Node, r.LabelHash, r.TokenID, r.DomainID)
}

// NewNamehashCommand creates the namehash command.
func NewNamehashCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "namehash <name>",
		Short: "Print the namehash, label hash and ids for a name",
		Long: `Normalise a name (lowercase, Unicode NFC) and print its EIP-137 node,
the label hash of its first label, the matching ERC-721 token id and the
domain id under the configured root node. A bare label gets the default
TLD appended.

Examples:
  nomindex namehash alice
  nomindex namehash Alice.nom --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			root, err := cfg.Root()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid root node", err)
			}

			name := namehash.WithTLD(namehash.Normalize(args[0]))
			if name == "" {
				return NewExitError(ExitCommandError, "name is empty")
			}
			first, _, _ := strings.Cut(name, ".")
			label := namehash.LabelHash(first)

			return rootOpts.formatter(cmd).Success(NamehashResult{
				Input:      args[0],
				Normalized: name,
				Node:       namehash.NameHash(name).Hex(),
				LabelHash:  label.Hex(),
				TokenID:    namehash.TokenIDFromLabel(label).String(),
				DomainID:   namehash.DomainID(root, label),
			})
		},
	}
}
