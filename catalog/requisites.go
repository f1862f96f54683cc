package catalog

import (
	"sort"
	"strings"

	"github.com/finnjohnston/enrollment/errs"
)

// Requisites is the canonical AND-of-ORs form of a prerequisite or corequisite
// rule: every group must be met, and a group is met by any one of its codes.
type Requisites [][]string

// Empty reports whether the rule is trivially satisfied.
func (r Requisites) Empty() bool {
	return len(r) == 0
}

// Courses returns every code referenced by the rule, sorted and deduplicated.
func (r Requisites) Courses() []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, group := range r {
		for _, code := range group {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return SortKey(codes[i]) < SortKey(codes[j]) })
	return codes
}

func (r Requisites) String() string {
	parts := make([]string, 0, len(r))
	for _, group := range r {
		if len(group) == 1 {
			parts = append(parts, group[0])
			continue
		}
		parts = append(parts, "("+strings.Join(group, " | ")+")")
	}
	return strings.Join(parts, " & ")
}

// NormalizeRequisites converts the loosely shaped requisite data found in
// catalog records into canonical Requisites. Accepted shapes:
//
//   - nil, "" or an empty list: no requisites
//   - "MATH 1200": a single course
//   - "MATH 1200 & (MATH 1300 | MATH 1301)": an expression, see ParseExpression
//   - ["A", "B"]: a flat OR-list
//   - [["A", "B"], "C", ...]: an AND of the normalized items
//   - {"and": [...]} / {"or": [...]}: explicit nesting to any depth
func NormalizeRequisites(raw any) (Requisites, error) {
	groups, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	return compact(groups), nil
}

func normalize(raw any) (Requisites, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(value) == "" {
			return nil, nil
		}
		if strings.ContainsAny(value, "&|()") {
			return ParseExpression(value)
		}
		code, err := NormalizeCode(value)
		if err != nil {
			return nil, err
		}
		return Requisites{{code}}, nil
	case []string:
		items := make([]any, len(value))
		for i, s := range value {
			items[i] = s
		}
		return normalizeList(items)
	case []any:
		return normalizeList(value)
	case map[string]any:
		return normalizeOperator(value)
	default:
		return nil, errs.InvalidInput("malformed requisite element %v (%T)", raw, raw)
	}
}

func normalizeList(items []any) (Requisites, error) {
	if len(items) == 0 {
		return nil, nil
	}

	if flat, ok := allStrings(items); ok {
		if anyExpression(flat) {
			return disjoinAll(flat)
		}
		var group []string
		for _, s := range flat {
			if strings.TrimSpace(s) == "" {
				continue
			}
			code, err := NormalizeCode(s)
			if err != nil {
				return nil, err
			}
			group = append(group, code)
		}
		if len(group) == 0 {
			return nil, nil
		}
		return Requisites{group}, nil
	}

	var result Requisites
	for _, item := range items {
		sub, err := normalize(item)
		if err != nil {
			return nil, err
		}
		result = append(result, sub...)
	}
	return result, nil
}

func normalizeOperator(node map[string]any) (Requisites, error) {
	if len(node) != 1 {
		return nil, errs.InvalidInput("requisite operator node must have exactly one key, got %d", len(node))
	}

	for key, value := range node {
		operands, ok := value.([]any)
		if !ok {
			return nil, errs.InvalidInput("requisite operator %q needs a list of operands", key)
		}

		switch strings.ToLower(key) {
		case "and":
			var result Requisites
			for _, operand := range operands {
				sub, err := normalize(operand)
				if err != nil {
					return nil, err
				}
				result = append(result, sub...)
			}
			return result, nil
		case "or":
			var result Requisites
			for i, operand := range operands {
				sub, err := normalize(operand)
				if err != nil {
					return nil, err
				}
				if i == 0 {
					result = sub
					continue
				}
				result = disjoin(result, sub)
			}
			return result, nil
		default:
			return nil, errs.InvalidInput("unknown requisite operator %q", key)
		}
	}
	return nil, nil
}

// disjoin computes (a) OR (b) for two AND-of-ORs expressions by distribution.
// An empty side is always satisfied, which makes the disjunction empty too.
func disjoin(a, b Requisites) Requisites {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	result := make(Requisites, 0, len(a)*len(b))
	for _, left := range a {
		for _, right := range b {
			merged := append(append([]string{}, left...), right...)
			result = append(result, merged)
		}
	}
	return result
}

// compact removes duplicate codes inside a group and duplicate groups while
// keeping first-seen order.
func compact(groups Requisites) Requisites {
	if len(groups) == 0 {
		return nil
	}
	seenGroups := make(map[string]struct{})
	result := make(Requisites, 0, len(groups))
	for _, group := range groups {
		seen := make(map[string]struct{}, len(group))
		clean := make([]string, 0, len(group))
		for _, code := range group {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			clean = append(clean, code)
		}
		if len(clean) == 0 {
			continue
		}
		sorted := append([]string{}, clean...)
		sort.Strings(sorted)
		key := strings.Join(sorted, "\x00")
		if _, ok := seenGroups[key]; ok {
			continue
		}
		seenGroups[key] = struct{}{}
		result = append(result, clean)
	}
	return result
}

func anyExpression(items []string) bool {
	for _, s := range items {
		if strings.ContainsAny(s, "&|()") {
			return true
		}
	}
	return false
}

// disjoinAll treats a flat list containing expressions as an OR of them.
func disjoinAll(items []string) (Requisites, error) {
	var result Requisites
	first := true
	for _, s := range items {
		if strings.TrimSpace(s) == "" {
			continue
		}
		sub, err := normalize(s)
		if err != nil {
			return nil, err
		}
		if first {
			result = sub
			first = false
			continue
		}
		result = disjoin(result, sub)
	}
	return result, nil
}

func allStrings(items []any) ([]string, bool) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
