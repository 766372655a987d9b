package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/nomindex/internal/entity"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

type row = map[string]any

// tables turns a snapshot into rows keyed by table name, with values in
// their JSON form.
func tables(snap entity.Snapshot) (map[string][]row, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string][]row
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func assertCount(rows map[string][]row, a Assertion) error {
	got := len(rows[a.Table])
	if got != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d rows in %s", a.Count, a.Table),
			Actual:   fmt.Sprintf("%d rows", got),
		}
	}
	return nil
}

func assertEntity(rows map[string][]row, a Assertion) error {
	var found row
	for _, r := range rows[a.Table] {
		if r["id"] == a.ID {
			found = r
			break
		}
	}
	if found == nil {
		return &AssertionError{
			Type:     AssertEntity,
			Expected: fmt.Sprintf("row in %s with id %s", a.Table, a.ID),
			Actual:   "row not found",
		}
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := a.Expect[key]
		got, ok := found[key]
		if !ok {
			return &AssertionError{
				Type:     AssertEntity,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("fields of %s: %v", a.Table, fieldNames(found)),
			}
		}
		if !stateValuesEqual(want, got) {
			return &AssertionError{
				Type:     AssertEntity,
				Expected: fmt.Sprintf("%s %s field %q = %v", a.Table, a.ID, key, want),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

// stateValuesEqual compares a YAML-parsed expectation against a JSON
// value. Numbers and strings compare by their printed form so that 2000
// and "2000" both match a uint64 column.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

func fieldNames(r row) []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// EvaluateAssertions evaluates all assertions against the final state.
// Returns one message per failed assertion.
func EvaluateAssertions(snap entity.Snapshot, assertions []Assertion) []string {
	if len(assertions) == 0 {
		return nil
	}
	rows, err := tables(snap)
	if err != nil {
		return []string{fmt.Sprintf("encode snapshot: %v", err)}
	}

	var errors []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCount:
			err = assertCount(rows, a)
		case AssertEntity:
			err = assertEntity(rows, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
