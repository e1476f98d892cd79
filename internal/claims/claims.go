// Package claims formats and parses claim-number range expressions.
package claims

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var numRe = regexp.MustCompile(`\d+`)

// FormatRanges renders a set of claim numbers as comma-joined ranges with an
// "and" before the final item: {1,2,3,5,6,10} -> "1-3, 5, 6, and 10".
// A window of exactly two contiguous values is emitted as two separate
// numbers, never "1-2"; only runs of three or more collapse to "start-end".
func FormatRanges(nums []int) string {
	if len(nums) == 0 {
		return ""
	}
	sorted := append([]int{}, nums...)
	sort.Ints(sorted)
	sorted = dedupe(sorted)

	if len(sorted) == 1 {
		return strconv.Itoa(sorted[0])
	}

	var parts []string
	emit := func(start, end int) {
		switch {
		case start == end:
			parts = append(parts, strconv.Itoa(start))
		case end == start+1:
			parts = append(parts, strconv.Itoa(start), strconv.Itoa(end))
		default:
			parts = append(parts, fmt.Sprintf("%d-%d", start, end))
		}
	}

	start, end := sorted[0], sorted[0]
	for _, n := range sorted[1:] {
		if n == end+1 {
			end = n
			continue
		}
		emit(start, end)
		start, end = n, n
	}
	emit(start, end)

	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}

// ParseSpec expands a claim specification like "1-5, 10, 15-20" into sorted
// unique claim numbers. It also accepts FormatRanges output ("1-3, 5, 6, and
// 10"). Parts that carry no digits are skipped.
func ParseSpec(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	// Normalize the "and" joiner FormatRanges emits so "1 and 2" and
	// "1-3 and 9" split like their comma forms.
	spec = strings.ReplaceAll(spec, " and ", ", ")
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			lo, err1 := strconv.Atoi(strings.TrimSpace(bounds[0]))
			hi, err2 := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err1 != nil || err2 != nil {
				continue
			}
			if hi < lo {
				return nil, fmt.Errorf("invalid range %q", part)
			}
			for n := lo; n <= hi; n++ {
				out = append(out, n)
			}
			continue
		}
		// Stray labels like "claim 7": take the first number present.
		if m := numRe.FindString(part); m != "" {
			n, err := strconv.Atoi(m)
			if err != nil {
				continue
			}
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return dedupe(out), nil
}

// ClaimWord returns the singular or plural noun for an intro sentence.
func ClaimWord(nums []int) string {
	if len(nums) == 1 {
		return "claim"
	}
	return "claims"
}

func dedupe(sorted []int) []int {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, n := range sorted[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}
