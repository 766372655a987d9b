package cli

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/nomindex/internal/entity"
	"github.com/roach88/nomindex/internal/namehash"
)

// weiDecimals is the exponent between wei and ether.
const weiDecimals = 18

var (
	hashPattern    = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	decimalPattern = regexp.MustCompile(`^[0-9]+$`)
)

// NewShowCommand creates the show command and its subcommands.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print projected accounts, domains and registrations",
	}
	cmd.AddCommand(newShowAccountCommand(rootOpts))
	cmd.AddCommand(newShowDomainCommand(rootOpts))
	cmd.AddCommand(newShowRegistrationCommand(rootOpts))
	return cmd
}

// AccountView is the output of show account.
type AccountView struct {
	Account entity.Account `json:"account"`
}

func (v AccountView) String() string {
	return "Account " + v.Account.ID
}

func newShowAccountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "account <address>",
		Short: "Show an account by address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !addressPattern.MatchString(args[0]) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid address %q", args[0]))
			}
			id := namehash.AccountID(common.HexToAddress(args[0]))
			return withReader(rootOpts, cmd, func(r showContext) error {
				acct, ok, err := r.backend.Account(r.ctx, id)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read account", err)
				}
				if !ok {
					return r.notFound("account", id)
				}
				return r.out.Success(AccountView{Account: acct})
			})
		},
	}
}

// DomainView is the output of show domain.
type DomainView struct {
	Domain entity.Domain `json:"domain"`
}

func (v DomainView) String() string {
	return fmt.Sprintf("Domain %s\n  name:  %s\n  label: %s",
		v.Domain.ID, orUnknown(v.Domain.Name), orUnknown(v.Domain.LabelName))
}

func newShowDomainCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "domain <id|name>",
		Short: "Show a domain by namehash id or by name",
		Long: `Show a domain. The argument is either a 0x-prefixed 32-byte domain id or
a second-level name such as "alice" or "alice.nom", which is normalised and
hashed under the configured root node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(rootOpts, cmd, func(r showContext) error {
				id, err := r.domainID(args[0])
				if err != nil {
					return err
				}
				d, ok, err := r.backend.Domain(r.ctx, id)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read domain", err)
				}
				if !ok {
					return r.notFound("domain", id)
				}
				return r.out.Success(DomainView{Domain: d})
			})
		},
	}
}

// RegistrationView is the output of show registration.
type RegistrationView struct {
	Registration entity.Registration `json:"registration"`
	TokenID      string              `json:"token_id"`
	CostEther    *string             `json:"cost_ether"`
	History      entity.History      `json:"history"`
}

func (v RegistrationView) String() string {
	var b strings.Builder
	r := v.Registration
	fmt.Fprintf(&b, "Registration %s\n", r.ID)
	fmt.Fprintf(&b, "  token id:   %s\n", v.TokenID)
	fmt.Fprintf(&b, "  domain:     %s\n", r.Domain)
	fmt.Fprintf(&b, "  label:      %s\n", orUnknown(r.LabelName))
	fmt.Fprintf(&b, "  registrant: %s\n", r.Registrant)
	fmt.Fprintf(&b, "  registered: %d\n", r.RegistrationDate)
	fmt.Fprintf(&b, "  expires:    %d\n", r.ExpiryDate)
	if r.Cost != nil {
		fmt.Fprintf(&b, "  cost:       %s wei (%s ether)\n", r.Cost, *v.CostEther)
	} else {
		b.WriteString("  cost:       unknown\n")
	}
	fmt.Fprintf(&b, "  history:    %d registered, %d renewed, %d transferred",
		len(v.History.Registered), len(v.History.Renewed), len(v.History.Transferred))
	return b.String()
}

func newShowRegistrationCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "registration <label|token-id|name>",
		Short: "Show a registration and its history",
		Long: `Show a registration with its audit history. The argument is a 0x-prefixed
32-byte label hash, a decimal ERC-721 token id, or a plain label.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := parseLabel(args[0])
			if err != nil {
				return err
			}
			id := namehash.RegistrationID(label)
			return withReader(rootOpts, cmd, func(r showContext) error {
				reg, ok, err := r.backend.Registration(r.ctx, id)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read registration", err)
				}
				if !ok {
					return r.notFound("registration", id)
				}
				hist, err := r.backend.History(r.ctx, id)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read history", err)
				}
				return r.out.Success(RegistrationView{
					Registration: reg,
					TokenID:      namehash.TokenIDFromLabel(label).String(),
					CostEther:    formatEther(reg.Cost),
					History:      hist,
				})
			})
		},
	}
}

// showContext carries what every show subcommand needs.
type showContext struct {
	ctx     context.Context
	backend Backend
	out     *OutputFormatter
	root    common.Hash
	suffix  string
}

func withReader(opts *RootOptions, cmd *cobra.Command, fn func(showContext) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	root, err := cfg.Root()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid root node", err)
	}
	ctx := commandContext(cmd)
	backend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	return fn(showContext{
		ctx:     ctx,
		backend: backend,
		out:     opts.formatter(cmd),
		root:    root,
		suffix:  cfg.DisplaySuffix,
	})
}

func (r showContext) notFound(what, id string) error {
	msg := fmt.Sprintf("%s %s not found", what, id)
	if err := r.out.Error(CodeNotFound, msg, nil); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// domainID accepts a domain id or a second-level name, with or without
// the display suffix.
func (r showContext) domainID(arg string) (string, error) {
	if hashPattern.MatchString(arg) {
		return common.HexToHash(arg).Hex(), nil
	}
	name := namehash.Normalize(arg)
	if r.suffix != "" {
		name = strings.TrimSuffix(name, r.suffix)
	}
	if name == "" || strings.Contains(name, ".") {
		return "", NewExitError(ExitCommandError, fmt.Sprintf("not a second-level name: %q", arg))
	}
	return namehash.DomainID(r.root, namehash.LabelHash(name)), nil
}

// parseLabel accepts a label hash, a decimal token id or a plain label.
func parseLabel(arg string) (common.Hash, error) {
	switch {
	case hashPattern.MatchString(arg):
		return common.HexToHash(arg), nil
	case decimalPattern.MatchString(arg):
		id, _ := new(big.Int).SetString(arg, 10)
		label, err := namehash.LabelFromTokenID(id)
		if err != nil {
			return common.Hash{}, WrapExitError(ExitCommandError, "invalid token id", err)
		}
		return label, nil
	}
	name := namehash.Normalize(arg)
	if name == "" || strings.Contains(name, ".") {
		return common.Hash{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid label %q", arg))
	}
	return namehash.LabelHash(name), nil
}

// formatEther renders wei as an ether amount without trailing zeros.
func formatEther(wei *big.Int) *string {
	if wei == nil {
		return nil
	}
	s := decimal.NewFromBigInt(wei, -weiDecimals).String()
	return &s
}

func orUnknown(s *string) string {
	if s == nil {
		return "(unknown)"
	}
	return *s
}

func sortedTables(counts map[string]int) []string {
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}
