package policy

import (
	"log/slog"
	"strings"

	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/requirement"
)

// DefaultSchools abbreviates school names in program classifications.
var DefaultSchools = map[string]string{
	"School of Engineering":       "SoE",
	"College of Arts and Science": "A&S",
}

// Result is the outcome of validating a plan. An invalid plan is a normal
// result, not an error.
type Result struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Engine evaluates configured policies against a set of programs and their
// course assignments.
type Engine struct {
	registry *Registry
	policies []Policy
	schools  map[string]string
	courses  CourseLookup
	logger   *slog.Logger
}

type Option func(*Engine)

// WithSchools replaces the school abbreviation table.
func WithSchools(schools map[string]string) Option {
	return func(e *Engine) {
		e.schools = schools
	}
}

// WithCourses supplies course data to rules that inspect courses.
func WithCourses(courses CourseLookup) Option {
	return func(e *Engine) {
		e.courses = courses
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine checks that every rule of every policy names a rule registered
// in registry. A nil registry means DefaultRegistry().
func NewEngine(policies []Policy, registry *Registry, opts ...Option) (*Engine, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}
	e := &Engine{
		registry: registry,
		policies: policies,
		schools:  DefaultSchools,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	for i, policy := range policies {
		for j, rule := range policy.Rules {
			if _, _, ok := registry.Lookup(rule.Type); !ok {
				return nil, errs.Configuration("policy %d rule %d: unknown rule type %q", i, j, rule.Type)
			}
		}
	}
	return e, nil
}

// Policies returns the configured policies.
func (e *Engine) Policies() []Policy {
	return e.policies
}

// Classify maps a program to its classification token, such as "SoE Major".
// Programs without a school classify as their bare type.
func (e *Engine) Classify(program *requirement.Program) string {
	kind := string(program.Type)
	if kind == "" {
		kind = string(requirement.Major)
	}
	if program.School == "" {
		return kind
	}
	school, ok := e.schools[program.School]
	if !ok {
		school = program.School
	}
	return school + " " + strings.ToUpper(kind[:1]) + kind[1:]
}

// Applicable returns the policies whose program types are all among the
// programs' classifications.
func (e *Engine) Applicable(programs []*requirement.Program) []Policy {
	tokens := make(map[string]struct{}, len(programs))
	for _, program := range programs {
		tokens[e.Classify(program)] = struct{}{}
	}
	var applicable []Policy
	for _, policy := range e.policies {
		matches := true
		for _, programType := range policy.ProgramTypes {
			if _, ok := tokens[programType]; !ok {
				matches = false
				break
			}
		}
		if matches {
			applicable = append(applicable, policy)
		}
	}
	return applicable
}

// Validate runs every rule of every applicable policy.
func (e *Engine) Validate(programs []*requirement.Program, assignments Assignments) Result {
	result := Result{Errors: []string{}, Warnings: []string{}}
	in := Input{Programs: programs, Assignments: assignments, Courses: e.courses}
	for _, policy := range e.Applicable(programs) {
		for _, rule := range policy.Rules {
			fn, severity, ok := e.registry.Lookup(rule.Type)
			if !ok {
				continue
			}
			violations := fn(in, rule.Params)
			if severity == SeverityWarning {
				result.Warnings = append(result.Warnings, violations...)
			} else {
				result.Errors = append(result.Errors, violations...)
			}
		}
	}
	result.IsValid = len(result.Errors) == 0
	if !result.IsValid {
		e.logger.Debug("Plan violates policy", "programs", len(programs), "errors", len(result.Errors))
	}
	return result
}
