package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/finnjohnston/enrollment/errs"
)

var codePattern = regexp.MustCompile(`^([A-Z][A-Z&]*)\s*([0-9]+)([A-Z]*)$`)

// NormalizeCode turns "math1200", "Math  1200" or "MATH 1200" into "MATH 1200".
func NormalizeCode(raw string) (string, error) {
	subject, number, err := SplitCode(raw)
	if err != nil {
		return "", err
	}
	return subject + " " + number, nil
}

// SplitCode returns the subject and the catalog number of a course code.
func SplitCode(raw string) (subject string, number string, err error) {
	trimmed := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	if trimmed == "" {
		return "", "", errs.InvalidInput("empty course code")
	}

	submatches := codePattern.FindStringSubmatch(trimmed)
	if submatches == nil {
		return "", "", errs.InvalidInput("malformed course code %q", raw)
	}
	return submatches[1], submatches[2] + submatches[3], nil
}

// LevelOf derives the course level from the first digit of the catalog number.
func LevelOf(number string) int {
	if number == "" || number[0] < '0' || number[0] > '9' {
		return 0
	}
	return int(number[0]-'0') * 1000
}

// NumericPart returns the leading digits of a catalog number, or false when
// the number does not start with a digit.
func NumericPart(number string) (int, bool) {
	end := 0
	for end < len(number) && number[end] >= '0' && number[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(number[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortKey orders course codes by subject, then numerically by catalog number,
// then by suffix, so "MATH 210" sorts before "MATH 1200".
func SortKey(code string) string {
	subject, number, err := SplitCode(code)
	if err != nil {
		return code
	}
	n, _ := NumericPart(number)
	suffix := strings.TrimLeft(number, "0123456789")
	return fmt.Sprintf("%-8s%06d%-2s", subject, n, suffix)
}
