package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v3"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/projector"
)

// Scenario is a sequence of registrar events and the state they must
// produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Root overrides the parent node as 0x-prefixed hex.
	Root string `yaml:"root,omitempty"`

	// Suffix overrides the display suffix.
	Suffix string `yaml:"suffix,omitempty"`

	// Labels seeds the reverse resolver with plaintext labels.
	Labels []string `yaml:"labels,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID tags journal entries. Defaults to "test-run".
	RunID string `yaml:"run_id,omitempty"`
}

// Step is one event and its expected handling.
type Step struct {
	Event  chain.Envelope `yaml:"event"`
	Expect *ExpectClause  `yaml:"expect,omitempty"`
}

// ExpectClause names either the outcome or the error code of a step.
type ExpectClause struct {
	Outcome string `yaml:"outcome,omitempty"`
	Code    string `yaml:"code,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is "count" or "entity".
	Type string `yaml:"type"`

	// Table is a snapshot table name such as "registrations".
	Table string `yaml:"table"`

	// Count is the expected number of rows (count).
	Count int `yaml:"count,omitempty"`

	// ID selects the row (entity).
	ID string `yaml:"id,omitempty"`

	// Expect holds field values the row must carry (entity). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertCount  = "count"
	AssertEntity = "entity"
)

var knownOutcomes = map[string]bool{
	string(projector.OutcomeApplied):   true,
	string(projector.OutcomeTolerated): true,
	string(projector.OutcomeDuplicate): true,
}

var knownCodes = map[string]bool{
	string(projector.ErrCodeMissingRecord):   true,
	string(projector.ErrCodeOutOfOrder):      true,
	string(projector.ErrCodeInvalidEvent):    true,
	string(projector.ErrCodeResolverFailure): true,
	string(projector.ErrCodeStoreFailure):    true,
}

var knownTables = map[string]bool{
	"accounts":         true,
	"domains":          true,
	"registrations":    true,
	"name_registered":  true,
	"name_renewed":     true,
	"name_transferred": true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Root != "" {
		b, err := hexutil.Decode(s.Root)
		if err != nil || len(b) != 32 {
			return fmt.Errorf("root must be a 32-byte hex value")
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Event.Kind == "" {
			return fmt.Errorf("steps[%d].event: kind is required", i)
		}
		if step.Expect == nil {
			continue
		}
		e := step.Expect
		switch {
		case e.Outcome == "" && e.Code == "":
			return fmt.Errorf("steps[%d].expect: outcome or code is required", i)
		case e.Outcome != "" && e.Code != "":
			return fmt.Errorf("steps[%d].expect: outcome and code are exclusive", i)
		case e.Outcome != "" && !knownOutcomes[e.Outcome]:
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", i, e.Outcome)
		case e.Code != "" && !knownCodes[e.Code]:
			return fmt.Errorf("steps[%d].expect: unknown code %q", i, e.Code)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}

	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if !knownTables[a.Table] {
		return fmt.Errorf("assertions[%d]: unknown table %q", index, a.Table)
	}

	switch a.Type {
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertEntity:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for entity", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for entity", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
