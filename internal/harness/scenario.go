package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultStartTime is the ledger clock at the first step when a scenario
// does not set start_time.
const DefaultStartTime uint64 = 1700000000

// Scenario is a scripted sequence of ledger calls with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartTime is the ledger clock before the first step.
	StartTime uint64 `yaml:"start_time,omitempty"`

	// StrictCurrency requires ISO 4217 currency codes.
	StrictCurrency bool `yaml:"strict_currency,omitempty"`

	// Retention overrides the retention pair applied after writes.
	Retention *RetentionSpec `yaml:"retention,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final ledger state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// RetentionSpec is a (threshold, extend_to) pair in seconds.
type RetentionSpec struct {
	Threshold uint32 `yaml:"threshold"`
	ExtendTo  uint32 `yaml:"extend_to"`
}

// Step is one ledger call. Which fields apply depends on Op.
type Step struct {
	// Op is one of send, complete, get, total, advance.
	Op string `yaml:"op"`

	// As lists the identities the caller controls for this step.
	As []string `yaml:"as,omitempty"`

	Sender    string  `yaml:"sender,omitempty"`
	Recipient string  `yaml:"recipient,omitempty"`
	Amount    string  `yaml:"amount,omitempty"`
	Currency  string  `yaml:"currency,omitempty"`
	ID        *uint64 `yaml:"id,omitempty"`
	Processor string  `yaml:"processor,omitempty"`
	Seconds   uint64  `yaml:"seconds,omitempty"`

	// Expect checks the step outcome. Nil expects success with no further
	// checks.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Op names.
const (
	OpSend     = "send"
	OpComplete = "complete"
	OpGet      = "get"
	OpTotal    = "total"
	OpAdvance  = "advance"
)

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected error code. Empty expects success.
	Error string `yaml:"error,omitempty"`

	// ID is the id send must return.
	ID *uint64 `yaml:"id,omitempty"`

	// Found is whether get must find the record.
	Found *bool `yaml:"found,omitempty"`

	// Status is the status get must report.
	Status string `yaml:"status,omitempty"`

	// Total is the count total must report.
	Total *uint64 `yaml:"total,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is trace_contains, trace_order, trace_count, final_state or total.
	Type string `yaml:"type"`

	// Op is the op name (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Args are the expected op arguments (trace_contains). Subset match.
	Args map[string]any `yaml:"args,omitempty"`

	// Count is the expected number (trace_count, total).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected op order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// ID is the record to inspect (final_state).
	ID uint64 `yaml:"id,omitempty"`

	// Expect contains expected record fields (final_state). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertTotal         = "total"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch step.Op {
		case OpSend:
			if step.Amount == "" {
				return fmt.Errorf("steps[%d]: send requires amount", i)
			}
		case OpComplete:
			if step.ID == nil {
				return fmt.Errorf("steps[%d]: complete requires id", i)
			}
		case OpGet:
			if step.ID == nil {
				return fmt.Errorf("steps[%d]: get requires id", i)
			}
		case OpTotal:
		case OpAdvance:
			if step.Seconds == 0 {
				return fmt.Errorf("steps[%d]: advance requires seconds", i)
			}
		case "":
			return fmt.Errorf("steps[%d]: op is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertTraceContains, AssertTraceCount:
			if a.Op == "" {
				return fmt.Errorf("assertions[%d]: %s requires op", i, a.Type)
			}
		case AssertTraceOrder:
			if len(a.Ops) < 2 {
				return fmt.Errorf("assertions[%d]: trace_order requires at least two ops", i)
			}
		case AssertFinalState:
			if a.ID == 0 {
				return fmt.Errorf("assertions[%d]: final_state requires id", i)
			}
		case AssertTotal:
		default:
			return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
	}

	return nil
}
