// Package policy decides whether an assignment of courses to program
// categories respects the overlap rules between programs.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/go-playground/validator/v10"
)

// Placement records that a course counts toward one category of a program.
type Placement struct {
	Program  string `json:"program"`
	Category string `json:"category"`
}

// Assignments maps a course code to its placements, in assignment order.
type Assignments map[string][]Placement

// Clone returns a deep copy.
func (a Assignments) Clone() Assignments {
	clone := make(Assignments, len(a))
	for code, placements := range a {
		clone[code] = append([]Placement(nil), placements...)
	}
	return clone
}

// In returns the categories of program that code is placed in.
func (a Assignments) In(code, program string) []string {
	var categories []string
	for _, placement := range a[code] {
		if placement.Program == program {
			categories = append(categories, placement.Category)
		}
	}
	return categories
}

// Policy is a set of rules that applies whenever a student's programs cover
// every classification in ProgramTypes.
type Policy struct {
	Name         string   `json:"name,omitempty"`
	ProgramTypes []string `json:"program_types"`
	Rules        []Rule   `json:"rules" validate:"dive"`
}

// Rule names a registered rule type plus its parameters. In configuration the
// parameters sit next to the type: {"type": "...", "condition": "..."}.
type Rule struct {
	Type   string `validate:"required"`
	Params Params
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	ruleType, _ := fields["type"].(string)
	delete(fields, "type")
	r.Type = ruleType
	r.Params = fields
	return nil
}

func (r Rule) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(r.Params)+1)
	for key, value := range r.Params {
		fields[key] = value
	}
	fields["type"] = r.Type
	return json.Marshal(fields)
}

// Params are the free-form parameters of a rule.
type Params map[string]any

func (p Params) String(key string) string {
	value, _ := p[key].(string)
	return value
}

// Int reads an integer parameter. JSON numbers and numeric strings are
// accepted.
func (p Params) Int(key string) (int, bool) {
	switch value := p[key].(type) {
	case int:
		return value, true
	case float64:
		return int(value), true
	case json.Number:
		n, err := value.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(value)
		return n, err == nil
	default:
		return 0, false
	}
}

var validate = validator.New()

// DecodePolicies parses policy records from JSON or YAML.
func DecodePolicies(path string, data []byte) ([]Policy, error) {
	var policies []Policy
	if err := catalog.Decode(path, data, &policies); err != nil {
		return nil, errs.Configuration("failed to parse policies %s: %v", path, err)
	}
	for i := range policies {
		if err := validate.Struct(policies[i]); err != nil {
			return nil, errs.Configuration("policy %d: %v", i, err)
		}
	}
	return policies, nil
}

// LoadPolicies reads the policy records in a JSON or YAML file.
func LoadPolicies(path string) ([]Policy, error) {
	return FileSource{Path: path}.Policies(context.Background())
}

// Source supplies policy records.
type Source interface {
	Policies(ctx context.Context) ([]Policy, error)
}

type FileSource struct {
	Path string
}

func (s FileSource) Policies(ctx context.Context) ([]Policy, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return DecodePolicies(s.Path, data)
}
