package requirement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/go-playground/validator/v10"
)

// ProgramSpec is the configuration form of a Program.
type ProgramSpec struct {
	Name         string         `json:"name" validate:"required"`
	Type         string         `json:"type" validate:"required,oneof=major minor"`
	TotalCredits int            `json:"total_credits" validate:"gte=0"`
	School       string         `json:"school,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Categories   []CategorySpec `json:"categories" validate:"dive"`
}

type CategorySpec struct {
	Category     string            `json:"category" validate:"required"`
	MinCredits   int               `json:"min_credits" validate:"gte=0"`
	Requirements []RequirementSpec `json:"requirements,omitempty"`
	Restrictions *RestrictionSpec  `json:"restrictions,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Tags         StringList        `json:"tags,omitempty"`
}

// RequirementSpec holds every field any requirement type uses. Options is a
// list of course codes for course_options and a list of nested
// RequirementSpecs for compound.
type RequirementSpec struct {
	Type         string           `json:"type"`
	Courses      []string         `json:"courses,omitempty"`
	Options      json.RawMessage  `json:"options,omitempty"`
	MinRequired  int              `json:"min_required,omitempty"`
	MinCredits   int              `json:"min_credits,omitempty"`
	Subject      string           `json:"subject,omitempty"`
	Tags         StringList       `json:"tags,omitempty"`
	MinLevel     int              `json:"min_level,omitempty"`
	MaxLevel     int              `json:"max_level,omitempty"`
	Note         string           `json:"note,omitempty"`
	Op           string           `json:"op,omitempty"`
	Restrictions *RestrictionSpec `json:"restrictions,omitempty"`
}

type RestrictionSpec struct {
	Type                string            `json:"type"`
	Courses             []string          `json:"courses,omitempty"`
	MinCredits          *int              `json:"min_credits,omitempty"`
	MaxCredits          *int              `json:"max_credits,omitempty"`
	Tag                 string            `json:"tag,omitempty"`
	Subject             string            `json:"subject,omitempty"`
	MinLevel            int               `json:"min_level,omitempty"`
	MaxLevel            int               `json:"max_level,omitempty"`
	ExcludedCourseCodes []string          `json:"excluded_course_codes,omitempty"`
	ExcludedNumbers     []int             `json:"excluded_numbers,omitempty"`
	MinNumber           int               `json:"min_number,omitempty"`
	MaxNumber           int               `json:"max_number,omitempty"`
	ExcludedLevels      []int             `json:"excluded_levels,omitempty"`
	Restrictions        []RestrictionSpec `json:"restrictions,omitempty"`
	Description         string            `json:"description,omitempty"`
}

// StringList accepts either a single string or a list of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		if single == "" {
			*s = nil
		} else {
			*s = StringList{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = list
	return nil
}

var validate = validator.New()

// BuildPrograms builds every program, stopping at the first malformed one.
func BuildPrograms(specs []ProgramSpec) ([]*Program, error) {
	programs := make([]*Program, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		program, err := BuildProgram(spec)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[program.Name]; ok {
			return nil, errs.Configuration("duplicate program %q", program.Name)
		}
		seen[program.Name] = struct{}{}
		programs = append(programs, program)
	}
	return programs, nil
}

// BuildProgram turns a ProgramSpec into a Program. Any malformed entry aborts
// the build with an ErrConfiguration naming its location.
func BuildProgram(spec ProgramSpec) (*Program, error) {
	if err := validate.Struct(spec); err != nil {
		return nil, errs.Configuration("program %q: %v", spec.Name, err)
	}

	program := &Program{
		Name:         spec.Name,
		Type:         Type(spec.Type),
		TotalCredits: spec.TotalCredits,
		School:       spec.School,
		Notes:        spec.Notes,
	}
	seen := make(map[string]struct{}, len(spec.Categories))
	for _, categorySpec := range spec.Categories {
		where := fmt.Sprintf("program %q category %q", spec.Name, categorySpec.Category)
		if _, ok := seen[categorySpec.Category]; ok {
			return nil, errs.Configuration("%s: duplicate category", where)
		}
		seen[categorySpec.Category] = struct{}{}
		if strings.Contains(categorySpec.Category, " / ") {
			return nil, errs.Configuration("%s: category names cannot contain \" / \"", where)
		}

		category, err := buildCategory(categorySpec, where)
		if err != nil {
			return nil, err
		}
		program.Categories = append(program.Categories, category)
	}
	return program, nil
}

func buildCategory(spec CategorySpec, where string) (*Category, error) {
	category := &Category{
		Name:       spec.Category,
		MinCredits: spec.MinCredits,
		Notes:      spec.Notes,
		Tags:       spec.Tags,
	}
	for i, requirementSpec := range spec.Requirements {
		requirement, err := buildRequirement(requirementSpec, fmt.Sprintf("%s requirement %d", where, i))
		if err != nil {
			return nil, err
		}
		category.Requirements = append(category.Requirements, requirement)
	}
	if spec.Restrictions != nil {
		restriction, err := buildRestriction(*spec.Restrictions, where+" restrictions")
		if err != nil {
			return nil, err
		}
		category.Restrictions = asGroup(restriction)
	}
	return category, nil
}

func buildRequirement(spec RequirementSpec, where string) (Requirement, error) {
	var restriction Restriction
	if spec.Restrictions != nil {
		built, err := buildRestriction(*spec.Restrictions, where+" restrictions")
		if err != nil {
			return nil, err
		}
		restriction = asGroup(built)
	}
	if spec.MinRequired < 0 || spec.MinCredits < 0 || spec.MinLevel < 0 || spec.MaxLevel < 0 {
		return nil, errs.Configuration("%s: negative threshold", where)
	}

	switch spec.Type {
	case "course_list":
		courses, err := codes(spec.Courses, where)
		if err != nil {
			return nil, err
		}
		if len(courses) == 0 {
			return nil, errs.Configuration("%s: course_list needs courses", where)
		}
		return NewCourseList(courses, restriction), nil
	case "course_options":
		var raw []string
		if len(spec.Options) > 0 {
			if err := json.Unmarshal(spec.Options, &raw); err != nil {
				return nil, errs.Configuration("%s: course_options options must be course codes: %v", where, err)
			}
		}
		options, err := codes(raw, where)
		if err != nil {
			return nil, err
		}
		if len(options) == 0 {
			return nil, errs.Configuration("%s: course_options needs options", where)
		}
		return NewCourseOptions(options, spec.MinRequired, spec.MinCredits, restriction), nil
	case "course_filter":
		if spec.MaxLevel > 0 && spec.MinLevel > spec.MaxLevel {
			return nil, errs.Configuration("%s: min_level %d above max_level %d", where, spec.MinLevel, spec.MaxLevel)
		}
		return NewCourseFilter(strings.ToUpper(spec.Subject), spec.Tags, spec.MinLevel, spec.MaxLevel, spec.MinCredits, spec.Note, restriction), nil
	case "compound":
		var raw []RequirementSpec
		if err := json.Unmarshal(spec.Options, &raw); err != nil {
			return nil, errs.Configuration("%s: compound options must be requirements: %v", where, err)
		}
		op := Operator(strings.ToUpper(spec.Op))
		if op != "" && op != And && op != Or {
			return nil, errs.Configuration("%s: unknown operator %q", where, spec.Op)
		}
		options := make([]Requirement, 0, len(raw))
		for i, optionSpec := range raw {
			option, err := buildRequirement(optionSpec, fmt.Sprintf("%s option %d", where, i))
			if err != nil {
				return nil, err
			}
			options = append(options, option)
		}
		return NewCompound(op, options, restriction), nil
	default:
		return nil, errs.Configuration("%s: unknown requirement type %q", where, spec.Type)
	}
}

func buildRestriction(spec RestrictionSpec, where string) (Restriction, error) {
	switch spec.Type {
	case "exclusion":
		excluded, err := codes(spec.ExcludedCourseCodes, where)
		if err != nil {
			return nil, err
		}
		return &Exclusion{
			Codes:     excluded,
			Numbers:   spec.ExcludedNumbers,
			MinNumber: spec.MinNumber,
			MaxNumber: spec.MaxNumber,
			Levels:    spec.ExcludedLevels,
			Subject:   strings.ToUpper(spec.Subject),
		}, nil
	case "course_group", "credit_limit":
		courses, err := codes(spec.Courses, where)
		if err != nil {
			return nil, err
		}
		if spec.MaxCredits == nil {
			return nil, errs.Configuration("%s: %s needs max_credits", where, spec.Type)
		}
		if spec.Type == "course_group" {
			return &CourseGroup{Courses: courses, MaxCredits: *spec.MaxCredits}, nil
		}
		return &CreditLimit{Courses: courses, MaxCredits: *spec.MaxCredits}, nil
	case "distribution":
		courses, err := codes(spec.Courses, where)
		if err != nil {
			return nil, err
		}
		if spec.MinCredits == nil {
			return nil, errs.Configuration("%s: distribution needs min_credits", where)
		}
		return &Distribution{Courses: courses, MinCredits: *spec.MinCredits}, nil
	case "tag_quota":
		if spec.Tag == "" || spec.MinCredits == nil {
			return nil, errs.Configuration("%s: tag_quota needs tag and min_credits", where)
		}
		return &TagQuota{Tag: spec.Tag, MinCredits: *spec.MinCredits}, nil
	case "subject_quota":
		if spec.Subject == "" {
			return nil, errs.Configuration("%s: subject_quota needs subject", where)
		}
		return &SubjectQuota{Subject: strings.ToUpper(spec.Subject), MinCredits: spec.MinCredits, MaxCredits: spec.MaxCredits}, nil
	case "level_quota":
		if spec.MinCredits == nil {
			return nil, errs.Configuration("%s: level_quota needs min_credits", where)
		}
		if spec.MaxLevel > 0 && spec.MinLevel > spec.MaxLevel {
			return nil, errs.Configuration("%s: min_level %d above max_level %d", where, spec.MinLevel, spec.MaxLevel)
		}
		return &LevelQuota{MinLevel: spec.MinLevel, MaxLevel: spec.MaxLevel, MinCredits: *spec.MinCredits}, nil
	case "group":
		group := &Group{Description: spec.Description}
		for i, memberSpec := range spec.Restrictions {
			member, err := buildRestriction(memberSpec, fmt.Sprintf("%s member %d", where, i))
			if err != nil {
				return nil, err
			}
			group.Restrictions = append(group.Restrictions, member)
		}
		return group, nil
	default:
		return nil, errs.Configuration("%s: unknown restriction type %q", where, spec.Type)
	}
}

func asGroup(r Restriction) *Group {
	if group, ok := r.(*Group); ok {
		return group
	}
	return &Group{Restrictions: []Restriction{r}}
}

func codes(raw []string, where string) ([]string, error) {
	normalized := make([]string, 0, len(raw))
	for _, code := range raw {
		n, err := catalog.NormalizeCode(code)
		if err != nil {
			return nil, errs.Configuration("%s: %v", where, err)
		}
		normalized = append(normalized, n)
	}
	return normalized, nil
}

// DecodePrograms parses program specs from JSON or YAML, chosen by the
// path's extension.
func DecodePrograms(path string, data []byte) ([]ProgramSpec, error) {
	var specs []ProgramSpec
	if err := catalog.Decode(path, data, &specs); err != nil {
		return nil, errs.Configuration("failed to parse programs %s: %v", path, err)
	}
	return specs, nil
}

// LoadPrograms reads and builds the programs in a JSON or YAML file.
func LoadPrograms(path string) ([]*Program, error) {
	specs, err := FileSource{Path: path}.ProgramSpecs(context.Background())
	if err != nil {
		return nil, err
	}
	return BuildPrograms(specs)
}

// FileSource reads program specs from a JSON or YAML file.
type FileSource struct {
	Path string
}

func (s FileSource) ProgramSpecs(ctx context.Context) ([]ProgramSpec, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read programs file: %w", err)
	}
	return DecodePrograms(s.Path, data)
}

// Source supplies program specs; the PostgreSQL store implements it.
type Source interface {
	ProgramSpecs(ctx context.Context) ([]ProgramSpec, error)
}

// Load builds the programs a Source supplies and logs programs whose
// category minimums exceed their total.
func Load(ctx context.Context, source Source, logger *slog.Logger) ([]*Program, error) {
	if logger == nil {
		logger = slog.Default()
	}
	specs, err := source.ProgramSpecs(ctx)
	if err != nil {
		return nil, err
	}
	programs, err := BuildPrograms(specs)
	if err != nil {
		return nil, err
	}
	for _, program := range programs {
		if !program.IsValid() {
			logger.Warn("Program category minimums exceed total credits",
				slog.String("program", program.Name),
				slog.Int("required", program.RequiredCredits()),
				slog.Int("total", program.TotalCredits))
		}
	}
	logger.Info("Loaded programs", slog.Int("programs", len(programs)))
	return programs, nil
}
