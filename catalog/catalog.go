// Package catalog holds the course records the planner reasons about: code
// normalization, canonical requisite structures and an indexed, read-only
// course collection.
package catalog

import (
	"sort"

	"github.com/finnjohnston/enrollment/errs"
)

// Catalog is an indexed, read-only collection of courses. It is safe for
// concurrent reads once built.
type Catalog struct {
	courses   []*Course
	byCode    map[string]*Course
	bySubject map[string][]*Course
	byLevel   map[int][]*Course
	byTag     map[string][]*Course
}

// New indexes the given courses. Duplicate codes are rejected.
func New(courses []*Course) (*Catalog, error) {
	c := &Catalog{
		courses:   make([]*Course, 0, len(courses)),
		byCode:    make(map[string]*Course, len(courses)),
		bySubject: make(map[string][]*Course),
		byLevel:   make(map[int][]*Course),
		byTag:     make(map[string][]*Course),
	}

	for _, course := range courses {
		if course == nil {
			return nil, errs.InvalidInput("nil course")
		}
		if _, exists := c.byCode[course.Code]; exists {
			return nil, errs.InvalidInput("duplicate course code %s", course.Code)
		}
		c.courses = append(c.courses, course)
		c.byCode[course.Code] = course
		c.bySubject[course.Subject] = append(c.bySubject[course.Subject], course)
		c.byLevel[course.Level] = append(c.byLevel[course.Level], course)
		for _, tag := range course.Tags {
			c.byTag[tag] = append(c.byTag[tag], course)
		}
	}

	sort.SliceStable(c.courses, func(i, j int) bool {
		return SortKey(c.courses[i].Code) < SortKey(c.courses[j].Code)
	})
	return c, nil
}

// FromRecords validates and indexes raw records.
func FromRecords(records []Record) (*Catalog, error) {
	courses := make([]*Course, 0, len(records))
	for _, record := range records {
		course, err := NewCourse(record)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return New(courses)
}

// All returns every course ordered by SortKey.
func (c *Catalog) All() []*Course {
	return c.courses
}

func (c *Catalog) Len() int {
	return len(c.courses)
}

// Get looks a course up by code; the code is normalized first.
func (c *Catalog) Get(code string) (*Course, bool) {
	if course, ok := c.byCode[code]; ok {
		return course, true
	}
	normalized, err := NormalizeCode(code)
	if err != nil {
		return nil, false
	}
	course, ok := c.byCode[normalized]
	return course, ok
}

// Lookup is Get with an ErrNotFound error for missing codes.
func (c *Catalog) Lookup(code string) (*Course, error) {
	course, ok := c.Get(code)
	if !ok {
		return nil, errs.NotFound("course %s", code)
	}
	return course, nil
}

func (c *Catalog) BySubject(subject string) []*Course {
	return c.bySubject[subject]
}

// ByLevel returns courses at a level, optionally restricted to one subject.
func (c *Catalog) ByLevel(level int, subject string) []*Course {
	if subject == "" {
		return c.byLevel[level]
	}
	var courses []*Course
	for _, course := range c.bySubject[subject] {
		if course.Level == level {
			courses = append(courses, course)
		}
	}
	return courses
}

func (c *Catalog) ByTag(tag string) []*Course {
	return c.byTag[tag]
}

func (c *Catalog) Subjects() []string {
	subjects := make([]string, 0, len(c.bySubject))
	for subject := range c.bySubject {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}

func (c *Catalog) Levels() []int {
	levels := make([]int, 0, len(c.byLevel))
	for level := range c.byLevel {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// Courses resolves a list of codes, silently skipping unknown ones.
func (c *Catalog) Courses(codes []string) []*Course {
	courses := make([]*Course, 0, len(codes))
	for _, code := range codes {
		if course, ok := c.Get(code); ok {
			courses = append(courses, course)
		}
	}
	return courses
}
