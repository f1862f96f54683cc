package planning

import (
	"sort"

	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/finnjohnston/enrollment/requirement"
)

// PlanTerm schedules courses for a semester between the current one and the
// end of the plan's horizon. A course already scheduled for another semester
// moves to this one. The term may not exceed MaxCredits.
func (p *Plan) PlanTerm(semester Semester, codes ...string) error {
	resolved, err := p.resolve(codes)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkTerm(semester); err != nil {
		return err
	}
	for _, code := range resolved {
		if p.completed.Has(code) {
			return errs.InvalidInput("%s is already completed", code)
		}
	}
	planned := p.schedule[semester].Union(graph.NewSet(resolved...))
	if credits := requirement.Credits(p.env.catalog().Courses(planned.Sorted())); credits > MaxCredits {
		return errs.InvalidInput("%s would have %d credits, above %d", semester, credits, MaxCredits)
	}

	for other := range p.schedule {
		if other == semester {
			continue
		}
		for _, code := range resolved {
			p.unplan(other, code)
		}
	}
	p.schedule[semester] = planned
	p.changed()
	p.logger.Info("Planned courses", "semester", semester.String(), "courses", resolved)
	return nil
}

func (p *Plan) checkTerm(semester Semester) error {
	if semester.Season != Fall && semester.Season != Spring {
		return errs.InvalidInput("semester %s has an unknown season", semester)
	}
	if semester.Before(p.semester) {
		return errs.InvalidInput("%s is before the current semester %s", semester, p.semester)
	}
	if semester.ordinal() >= p.start.ordinal()+2*p.years {
		return errs.InvalidInput("%s is beyond the plan's %d-year horizon", semester, p.years)
	}
	return nil
}

// unplan removes a course from one term. Callers hold p.mu.
func (p *Plan) unplan(semester Semester, code string) bool {
	planned, ok := p.schedule[semester]
	if !ok || !planned.Has(code) {
		return false
	}
	delete(planned, code)
	if len(planned) == 0 {
		delete(p.schedule, semester)
	}
	return true
}

// Unplan removes a course from a semester's schedule and reports whether it
// was there.
func (p *Plan) Unplan(semester Semester, code string) bool {
	code = normalize(code)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.unplan(semester, code) {
		return false
	}
	p.changed()
	return true
}

// ClearTerm removes every course planned for semester.
func (p *Plan) ClearTerm(semester Semester) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.schedule[semester]; !ok {
		return false
	}
	delete(p.schedule, semester)
	p.changed()
	return true
}

// Schedule returns the planned terms in order. Empty terms are left out.
func (p *Plan) Schedule() []Term {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terms()
}

// PlannedCourses returns every scheduled course, term by term.
func (p *Plan) PlannedCourses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var codes []string
	for _, term := range p.terms() {
		codes = append(codes, term.Courses...)
	}
	return codes
}

// Horizon returns the semesters the plan may schedule into.
func (p *Plan) Horizon() []Semester {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Terms(p.start, p.years)
}

// terms renders the schedule. Callers hold p.mu.
func (p *Plan) terms() []Term {
	if len(p.schedule) == 0 {
		return nil
	}
	terms := make([]Term, 0, len(p.schedule))
	for semester, planned := range p.schedule {
		terms = append(terms, Term{Semester: semester, Courses: planned.Sorted()})
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Semester.Before(terms[j].Semester) })
	return terms
}

// DraftSchedule proposes terms for the courses the plan's programs name and
// the student has neither completed nor enrolled in. Each term takes the
// courses whose prerequisites the earlier terms meet, split so no term
// exceeds MaxCredits and mutual corequisites share a term. Drafting starts
// with the current semester, or the next one when courses are enrolled.
// Courses that can never be taken are left out.
func (p *Plan) DraftSchedule() []Term {
	p.mu.Lock()
	defer p.mu.Unlock()

	taken := p.completed.Union(p.enrolled)
	remaining := graph.NewSet()
	for _, program := range p.programs {
		for _, code := range requirement.ReferencedCourses(program) {
			if !taken.Has(code) {
				remaining.Add(code)
			}
		}
	}

	semester := p.semester
	if len(p.enrolled) > 0 {
		semester = semester.Next()
	}
	var terms []Term
	for _, wave := range p.env.Eligibility.Graph().DegreePlan(remaining, taken) {
		for _, courses := range p.pack(wave) {
			terms = append(terms, Term{Semester: semester, Courses: courses})
			semester = semester.Next()
		}
	}
	return terms
}

func (p *Plan) pack(wave []string) [][]string {
	within := graph.NewSet(wave...)
	placed := graph.NewSet()
	var terms [][]string
	var current []string
	credits := 0
	for _, code := range wave {
		if placed.Has(code) {
			continue
		}
		unit := p.env.Eligibility.MutualGroup(code, within).Sorted()
		placed.Add(unit...)
		unitCredits := requirement.Credits(p.env.catalog().Courses(unit))
		if len(current) > 0 && credits+unitCredits > MaxCredits {
			terms = append(terms, current)
			current, credits = nil, 0
		}
		current = append(current, unit...)
		credits += unitCredits
	}
	if len(current) > 0 {
		terms = append(terms, current)
	}
	return terms
}
