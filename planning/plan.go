package planning

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/finnjohnston/enrollment/cache"
	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/finnjohnston/enrollment/policy"
	"github.com/finnjohnston/enrollment/requirement"
	"github.com/google/uuid"
)

// Environment is the read-only data a plan works against. The same
// environment may back many plans.
type Environment struct {
	Eligibility *graph.Eligibility
	// Policies may be nil, in which case assignments are only checked
	// against the categories themselves.
	Policies *policy.Engine
	// Cache, when set, holds recommendation results keyed by plan version.
	Cache  *cache.LRU[string, Recommendations]
	Logger *slog.Logger
	// Years is the horizon new plans may schedule into; zero means
	// DefaultYears.
	Years int
}

func (e Environment) catalog() *catalog.Catalog {
	return e.Eligibility.Graph().Catalog()
}

// State is the persistable form of a plan.
type State struct {
	ID          string             `json:"id"`
	Programs    []string           `json:"programs"`
	Completed   []string           `json:"completed"`
	Enrolled    []string           `json:"enrolled"`
	Semester    Semester           `json:"semester"`
	Start       Semester           `json:"start"`
	Years       int                `json:"years"`
	Schedule    []Term             `json:"schedule,omitempty"`
	Assignments policy.Assignments `json:"assignments"`
	Version     uint64             `json:"version"`
}

// Term is one semester of a schedule and the courses planned for it.
type Term struct {
	Semester Semester `json:"semester"`
	Courses  []string `json:"courses"`
}

// Progress summarizes a plan.
type Progress struct {
	Semester         Semester                      `json:"semester"`
	Completed        []string                      `json:"completed"`
	Enrolled         []string                      `json:"enrolled"`
	CompletedCredits int                           `json:"completed_credits"`
	Schedule         []Term                        `json:"schedule,omitempty"`
	Programs         []requirement.ProgramProgress `json:"programs"`
}

// Plan is one student's degree plan. All methods are safe for concurrent
// use; mutations are serialized by the plan's lock.
type Plan struct {
	mu        sync.Mutex
	id        string
	env       Environment
	programs  []*requirement.Program
	assigner  *Assigner
	planner   *SemesterPlanner
	completed graph.Set
	enrolled  graph.Set
	semester  Semester
	start     Semester
	years     int
	schedule  map[Semester]graph.Set
	version   uint64
	logger    *slog.Logger
}

// NewPlan starts an empty plan for programs in the start semester.
func NewPlan(env Environment, programs []*requirement.Program, start Semester) *Plan {
	return newPlan(env, uuid.NewString(), programs, start)
}

func newPlan(env Environment, id string, programs []*requirement.Program, start Semester) *Plan {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	years := env.Years
	if years <= 0 {
		years = DefaultYears
	}
	return &Plan{
		id:        id,
		env:       env,
		programs:  programs,
		assigner:  NewAssigner(programs, env.catalog(), env.Policies),
		planner:   NewSemesterPlanner(env.Eligibility, logger),
		completed: graph.NewSet(),
		enrolled:  graph.NewSet(),
		semester:  start,
		start:     start,
		years:     years,
		schedule:  make(map[Semester]graph.Set),
		version:   1,
		logger:    logger.With("plan", id),
	}
}

func (p *Plan) ID() string {
	return p.id
}

func (p *Plan) Programs() []*requirement.Program {
	return p.programs
}

func (p *Plan) Semester() Semester {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.semester
}

// Version increases with every change to the plan.
func (p *Plan) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// changed bumps the version and drops recommendations cached for the old one.
// Callers hold p.mu.
func (p *Plan) changed() {
	if p.env.Cache != nil {
		p.env.Cache.Delete(p.cacheKey())
	}
	p.version++
}

func (p *Plan) cacheKey() string {
	return fmt.Sprintf("%s@%d", p.id, p.version)
}

func (p *Plan) resolve(codes []string) ([]string, error) {
	resolved := make([]string, 0, len(codes))
	for _, code := range codes {
		course, err := p.env.catalog().Lookup(code)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, course.Code)
	}
	return resolved, nil
}

// AddCompleted records finished courses. Unknown codes fail the whole call.
func (p *Plan) AddCompleted(codes ...string) error {
	resolved, err := p.resolve(codes)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, code := range resolved {
		p.completed.Add(code)
		delete(p.enrolled, code)
	}
	p.changed()
	return nil
}

// Enroll adds a course to the current semester when it is eligible and fits
// within MaxCredits.
func (p *Plan) Enroll(code string) (graph.Decision, error) {
	course, err := p.env.catalog().Lookup(code)
	if err != nil {
		return graph.Decision{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	decision := p.env.Eligibility.Check(course.Code, p.completed, p.enrolled)
	if !decision.Eligible {
		return decision, nil
	}
	if credits := p.enrolledCredits() + course.Credits; credits > MaxCredits {
		return graph.Decision{Reason: fmt.Sprintf("enrolling would bring %s to %d credits, above %d", p.semester, credits, MaxCredits)}, nil
	}
	p.enrolled.Add(course.Code)
	p.changed()
	p.logger.Info("Enrolled in course", "course", course.Code, "semester", p.semester.String())
	return decision, nil
}

func (p *Plan) enrolledCredits() int {
	return requirement.Credits(p.env.catalog().Courses(p.enrolled.Sorted()))
}

// RemoveCourse drops a course from the completed and enrolled lists and from
// every assignment. It reports whether the plan changed.
func (p *Plan) RemoveCourse(code string) bool {
	code = normalize(code)
	p.mu.Lock()
	defer p.mu.Unlock()

	found := p.completed.Has(code) || p.enrolled.Has(code)
	delete(p.completed, code)
	delete(p.enrolled, code)
	for semester, planned := range p.schedule {
		if planned.Has(code) {
			p.unplan(semester, code)
			found = true
		}
	}
	if p.assigner.Unassign(code, "") {
		found = true
	}
	if found {
		p.changed()
	}
	return found
}

// AssignCourse counts a completed course toward a program category.
func (p *Plan) AssignCourse(code, program, category string) (Outcome, error) {
	course, err := p.env.catalog().Lookup(code)
	if err != nil {
		return Outcome{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.completed.Has(course.Code) {
		return rejected("%s has not been completed", course.Code), nil
	}
	outcome, err := p.assigner.Assign(course.Code, program, category)
	if err != nil {
		return Outcome{}, err
	}
	if outcome.Accepted {
		p.changed()
		p.logger.Info("Assigned course", "course", course.Code, "program", program, "category", category)
	} else {
		p.logger.Debug("Assignment rejected", "course", course.Code, "reason", outcome.Reason)
	}
	return outcome, nil
}

// AdvanceSemester completes the enrolled courses and moves to the next term.
func (p *Plan) AdvanceSemester() Semester {
	p.mu.Lock()
	defer p.mu.Unlock()

	for code := range p.enrolled {
		p.completed.Add(code)
	}
	finished := len(p.enrolled)
	p.enrolled = graph.NewSet()
	previous := p.semester
	p.semester = p.semester.Next()
	p.changed()
	p.logger.Info("Advanced semester", "from", previous.String(), "to", p.semester.String(), "completed", finished)
	return p.semester
}

// Recommendations returns what to take in the current semester.
func (p *Plan) Recommendations() (Recommendations, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	compute := func() (Recommendations, error) {
		return p.planner.Recommend(p.programs, p.completed, p.enrolled, p.assigner.Assignments()), nil
	}
	if p.env.Cache == nil {
		return compute()
	}
	return p.env.Cache.GetOrCompute(p.cacheKey(), compute)
}

// Validate checks the current assignments against the policies that apply to
// the plan's programs.
func (p *Plan) Validate() policy.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.env.Policies == nil {
		return policy.Result{IsValid: true, Errors: []string{}, Warnings: []string{}}
	}
	return p.env.Policies.Validate(p.programs, p.assigner.Assignments())
}

func (p *Plan) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()

	completed := p.env.catalog().Courses(p.completed.Sorted())
	progress := Progress{
		Semester:         p.semester,
		Completed:        p.completed.Sorted(),
		Enrolled:         p.enrolled.Sorted(),
		CompletedCredits: requirement.Credits(completed),
		Schedule:         p.terms(),
	}
	for _, program := range p.programs {
		assigned := make(map[string][]*catalog.Course, len(program.Categories))
		for _, category := range program.Categories {
			assigned[category.Name] = p.assigner.Assigned(program.Name, category.Name)
		}
		progress.Programs = append(progress.Programs, program.Progress(assigned))
	}
	return progress
}

// Summary groups the plan's assignments by program and category.
func (p *Plan) Summary() map[string]map[string][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assigner.Summary()
}

// Snapshot captures the plan's state for persistence.
func (p *Plan) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, len(p.programs))
	for i, program := range p.programs {
		names[i] = program.Name
	}
	return State{
		ID:          p.id,
		Programs:    names,
		Completed:   p.completed.Sorted(),
		Enrolled:    p.enrolled.Sorted(),
		Semester:    p.semester,
		Start:       p.start,
		Years:       p.years,
		Schedule:    p.terms(),
		Assignments: p.assigner.Assignments(),
		Version:     p.version,
	}
}

// Restore rebuilds a plan from a snapshot. available must contain every
// program the snapshot names.
func Restore(env Environment, available []*requirement.Program, state State) (*Plan, error) {
	byName := make(map[string]*requirement.Program, len(available))
	for _, program := range available {
		byName[program.Name] = program
	}
	programs := make([]*requirement.Program, 0, len(state.Programs))
	for _, name := range state.Programs {
		program, ok := byName[name]
		if !ok {
			return nil, errs.NotFound("program %q", name)
		}
		programs = append(programs, program)
	}

	id := state.ID
	if id == "" {
		id = uuid.NewString()
	}
	p := newPlan(env, id, programs, state.Semester)
	completed, err := p.resolve(state.Completed)
	if err != nil {
		return nil, fmt.Errorf("failed to restore completed courses: %w", err)
	}
	enrolled, err := p.resolve(state.Enrolled)
	if err != nil {
		return nil, fmt.Errorf("failed to restore enrolled courses: %w", err)
	}
	p.completed.Add(completed...)
	p.enrolled.Add(enrolled...)
	if state.Start.Year != 0 {
		p.start = state.Start
	}
	if state.Years > 0 {
		p.years = state.Years
	}
	for _, term := range state.Schedule {
		planned, err := p.resolve(term.Courses)
		if err != nil {
			return nil, fmt.Errorf("failed to restore %s schedule: %w", term.Semester, err)
		}
		if len(planned) > 0 {
			p.schedule[term.Semester] = graph.NewSet(planned...)
		}
	}
	if state.Assignments != nil {
		p.assigner.Replace(state.Assignments)
	}
	if state.Version > p.version {
		p.version = state.Version
	}
	return p, nil
}

func (p *Plan) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.programs))
	for i, program := range p.programs {
		names[i] = program.Name
	}
	return fmt.Sprintf("plan %s (%s) in %s: %d completed, %d enrolled",
		p.id, strings.Join(names, ", "), p.semester, len(p.completed), len(p.enrolled))
}
