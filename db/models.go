package db

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
)

type Subject struct {
	Code string
	Name string
}

// SubjectsOf collects the distinct subjects named by records, sorted by code.
// A record without a subject name leaves the name empty unless another record
// supplies it.
func SubjectsOf(records []catalog.Record) ([]Subject, error) {
	names := make(map[string]string)
	for _, record := range records {
		subject, _, err := catalog.SplitCode(record.CourseCode)
		if err != nil {
			return nil, err
		}
		if names[subject] == "" {
			names[subject] = record.SubjectName
		}
	}
	subjects := make([]Subject, 0, len(names))
	for code, name := range names {
		subjects = append(subjects, Subject{Code: code, Name: name})
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Code < subjects[j].Code })
	return subjects, nil
}

// courseRow is a catalog record in column form.
type courseRow struct {
	Code          string
	SubjectCode   string
	CatalogNumber string
	Title         string
	Credits       int
	Level         int
	Tags          []string
	Prerequisites []byte
	Corequisites  []byte
	Description   string
}

func toRow(record catalog.Record) (courseRow, error) {
	course, err := catalog.NewCourse(record)
	if err != nil {
		return courseRow{}, err
	}
	prerequisites, err := encodeRequisites(course.Prerequisites)
	if err != nil {
		return courseRow{}, err
	}
	corequisites, err := encodeRequisites(course.Corequisites)
	if err != nil {
		return courseRow{}, err
	}
	tags := course.Tags
	if tags == nil {
		tags = []string{}
	}
	return courseRow{
		Code:          course.Code,
		SubjectCode:   course.Subject,
		CatalogNumber: course.Number,
		Title:         course.Title,
		Credits:       course.Credits,
		Level:         course.Level,
		Tags:          tags,
		Prerequisites: prerequisites,
		Corequisites:  corequisites,
		Description:   strings.ReplaceAll(record.Description, "\x00", ""),
	}, nil
}

func (r courseRow) record() (catalog.Record, error) {
	prerequisites, err := decodeRequisites(r.Prerequisites)
	if err != nil {
		return catalog.Record{}, err
	}
	corequisites, err := decodeRequisites(r.Corequisites)
	if err != nil {
		return catalog.Record{}, err
	}
	tags := make([]any, len(r.Tags))
	for i, tag := range r.Tags {
		tags[i] = tag
	}
	return catalog.Record{
		CourseCode:    r.Code,
		Title:         r.Title,
		SubjectCode:   r.SubjectCode,
		CourseNumber:  r.CatalogNumber,
		Level:         r.Level,
		Credits:       r.Credits,
		Axle:          tags,
		Prerequisites: prerequisites,
		Corequisites:  corequisites,
		Description:   r.Description,
	}, nil
}

// Requisites are stored already normalized, as a JSON list of OR groups.
func encodeRequisites(requisites catalog.Requisites) ([]byte, error) {
	if requisites.Empty() {
		return nil, nil
	}
	return json.Marshal(requisites)
}

func decodeRequisites(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var groups [][]string
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, err
	}
	raw := make([]any, len(groups))
	for i, group := range groups {
		members := make([]any, len(group))
		for j, code := range group {
			members[j] = code
		}
		raw[i] = members
	}
	return raw, nil
}
