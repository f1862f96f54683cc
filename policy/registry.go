package policy

import (
	"sort"
	"sync"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/requirement"
)

// CourseLookup resolves course codes; *catalog.Catalog implements it.
type CourseLookup interface {
	Get(code string) (*catalog.Course, bool)
}

// Input is what a rule evaluates.
type Input struct {
	Programs    []*requirement.Program
	Assignments Assignments
	// Courses may be nil; rules that need course data then skip those checks.
	Courses CourseLookup
}

// RuleFunc returns one message per violation.
type RuleFunc func(in Input, params Params) []string

type Severity int

const (
	// SeverityError violations make a plan invalid.
	SeverityError Severity = iota
	// SeverityWarning violations are reported but do not invalidate a plan.
	SeverityWarning
)

type registration struct {
	fn       RuleFunc
	severity Severity
}

// Registry maps rule type names to their implementations. Registries are
// independent values; engines built from different registries do not share
// rules.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]registration)}
}

// DefaultRegistry returns a new registry holding the built-in rules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(RuleNoDoubleCount, NoDoubleCountWithinProgram)
	_ = r.Register(RuleCrossProgramOverlap, AllowCrossProgramOverlap)
	_ = r.RegisterAdvisory(RuleMaxSharedCourses, MaxSharedCourses)
	return r
}

// Register adds a rule whose violations are errors.
func (r *Registry) Register(name string, fn RuleFunc) error {
	return r.register(name, fn, SeverityError)
}

// RegisterAdvisory adds a rule whose violations are warnings.
func (r *Registry) RegisterAdvisory(name string, fn RuleFunc) error {
	return r.register(name, fn, SeverityWarning)
}

func (r *Registry) register(name string, fn RuleFunc, severity Severity) error {
	if name == "" || fn == nil {
		return errs.Configuration("rule registration needs a name and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[name]; exists {
		return errs.Configuration("rule %q already registered", name)
	}
	r.rules[name] = registration{fn: fn, severity: severity}
	return nil
}

func (r *Registry) Lookup(name string) (RuleFunc, Severity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	registered, ok := r.rules[name]
	return registered.fn, registered.severity, ok
}

// Names lists the registered rule types, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
