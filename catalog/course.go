package catalog

import (
	"fmt"
	"strings"

	"github.com/finnjohnston/enrollment/errs"
	"github.com/go-playground/validator/v10"
)

// Record is a raw course entry as it arrives from a file or the database.
// Prerequisites and Corequisites keep whatever nested shape the source used;
// NewCourse normalizes them once.
type Record struct {
	CourseCode    string `json:"course_code" yaml:"course_code" validate:"required"`
	Title         string `json:"title" yaml:"title"`
	SubjectName   string `json:"subject_name,omitempty" yaml:"subject_name,omitempty"`
	SubjectCode   string `json:"subject_code,omitempty" yaml:"subject_code,omitempty"`
	CourseNumber  string `json:"course_number,omitempty" yaml:"course_number,omitempty"`
	Level         int    `json:"level,omitempty" yaml:"level,omitempty" validate:"gte=0"`
	Credits       int    `json:"credits" yaml:"credits" validate:"gte=0"`
	Axle          any    `json:"axle,omitempty" yaml:"axle,omitempty"`
	Prerequisites any    `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
	Corequisites  any    `json:"corequisites,omitempty" yaml:"corequisites,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Course is an immutable catalog entry. Callers must not modify the slices it
// exposes.
type Course struct {
	Code          string
	Subject       string
	Number        string
	Title         string
	Level         int
	Credits       int
	Tags          []string
	Prerequisites Requisites
	Corequisites  Requisites
}

var validate = validator.New()

// NewCourse validates a record and builds a Course from it.
func NewCourse(record Record) (*Course, error) {
	if err := validate.Struct(record); err != nil {
		return nil, errs.InvalidInput("course %q: %v", record.CourseCode, err)
	}

	code, err := NormalizeCode(record.CourseCode)
	if err != nil {
		return nil, err
	}
	subject, number, _ := SplitCode(code)
	if record.SubjectCode != "" && !strings.EqualFold(record.SubjectCode, subject) {
		return nil, errs.InvalidInput("course %s: subject %q does not match code", code, record.SubjectCode)
	}

	level := record.Level
	if level == 0 {
		level = LevelOf(number)
	}

	tags, err := tagsOf(record.Axle)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", code, err)
	}

	prerequisites, err := NormalizeRequisites(record.Prerequisites)
	if err != nil {
		return nil, fmt.Errorf("course %s prerequisites: %w", code, err)
	}
	corequisites, err := NormalizeRequisites(record.Corequisites)
	if err != nil {
		return nil, fmt.Errorf("course %s corequisites: %w", code, err)
	}

	return &Course{
		Code:          code,
		Subject:       subject,
		Number:        number,
		Title:         strings.TrimSpace(record.Title),
		Level:         level,
		Credits:       record.Credits,
		Tags:          tags,
		Prerequisites: prerequisites,
		Corequisites:  corequisites,
	}, nil
}

// HasTag reports whether the course carries the given axle tag.
func (c *Course) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (c *Course) String() string {
	if c.Title == "" {
		return c.Code
	}
	return c.Code + ": " + c.Title
}

func tagsOf(raw any) ([]string, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if value == "" {
			return nil, nil
		}
		return []string{value}, nil
	case []string:
		return append([]string{}, value...), nil
	case []any:
		tags := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, errs.InvalidInput("axle tag %v is not a string", item)
			}
			if s != "" {
				tags = append(tags, s)
			}
		}
		return tags, nil
	default:
		return nil, errs.InvalidInput("axle has unsupported type %T", raw)
	}
}
