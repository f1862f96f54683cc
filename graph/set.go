package graph

import (
	"sort"

	"github.com/finnjohnston/enrollment/catalog"
)

// Set is a set of course codes.
type Set map[string]struct{}

func NewSet(codes ...string) Set {
	s := make(Set, len(codes))
	for _, code := range codes {
		s[code] = struct{}{}
	}
	return s
}

func (s Set) Has(code string) bool {
	_, ok := s[code]
	return ok
}

func (s Set) Add(codes ...string) {
	for _, code := range codes {
		s[code] = struct{}{}
	}
}

// Union returns a new set; neither operand is modified.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for code := range s {
		out[code] = struct{}{}
	}
	for code := range other {
		out[code] = struct{}{}
	}
	return out
}

// Sorted returns the members in catalog order.
func (s Set) Sorted() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sortCodes(codes)
	return codes
}

func sortCodes(codes []string) {
	sort.Slice(codes, func(i, j int) bool {
		return catalog.SortKey(codes[i]) < catalog.SortKey(codes[j])
	})
}
