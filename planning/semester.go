package planning

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/finnjohnston/enrollment/errs"
)

type Season string

const (
	Fall   Season = "Fall"
	Spring Season = "Spring"
)

// MaxCredits is the most credits a student may enroll in for one semester.
const MaxCredits = 18

// DefaultYears is the planning horizon of a new plan.
const DefaultYears = 4

// Semester is one academic term. The academic year starts in the fall, so
// Fall 2025 is followed by Spring 2026.
type Semester struct {
	Season Season `json:"season" yaml:"season"`
	Year   int    `json:"year" yaml:"year"`
}

// ParseSemester reads terms such as "Fall 2025" or "spring 2026".
func ParseSemester(raw string) (Semester, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return Semester{}, errs.InvalidInput("semester %q is not \"<season> <year>\"", raw)
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil || year <= 0 {
		return Semester{}, errs.InvalidInput("semester %q has an invalid year", raw)
	}
	var season Season
	switch strings.ToLower(fields[0]) {
	case "fall":
		season = Fall
	case "spring":
		season = Spring
	default:
		return Semester{}, errs.InvalidInput("semester %q has an unknown season", raw)
	}
	return Semester{Season: season, Year: year}, nil
}

// Next returns the following term.
func (s Semester) Next() Semester {
	if s.Season == Fall {
		return Semester{Season: Spring, Year: s.Year + 1}
	}
	return Semester{Season: Fall, Year: s.Year}
}

// Before reports whether s comes earlier than other.
func (s Semester) Before(other Semester) bool {
	return s.ordinal() < other.ordinal()
}

// ordinal numbers terms consecutively: Spring Y is 2Y and Fall Y is 2Y+1.
func (s Semester) ordinal() int {
	if s.Season == Fall {
		return 2*s.Year + 1
	}
	return 2 * s.Year
}

// Terms lists the semesters of a horizon of years, two per year, starting
// with start.
func Terms(start Semester, years int) []Semester {
	terms := make([]Semester, 0, 2*years)
	for current := start; len(terms) < 2*years; current = current.Next() {
		terms = append(terms, current)
	}
	return terms
}

func (s Semester) String() string {
	return fmt.Sprintf("%s %d", s.Season, s.Year)
}
