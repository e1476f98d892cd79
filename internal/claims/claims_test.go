package claims

import (
	"reflect"
	"testing"
)

func TestFormatRanges(t *testing.T) {
	cases := []struct {
		name string
		in   []int
		want string
	}{
		{"empty", nil, ""},
		{"single", []int{7}, "7"},
		{"pair_not_dashed", []int{1, 2}, "1 and 2"},
		{"triple_dashed", []int{1, 2, 3}, "1-3"},
		{"full_run", []int{1, 2, 3, 4, 5}, "1-5"},
		{"mixed", []int{1, 2, 3, 5, 6, 10}, "1-3, 5, 6, and 10"},
		{"two_parts", []int{1, 2, 3, 9}, "1-3 and 9"},
		{"unsorted_dup", []int{10, 1, 3, 2, 10}, "1-3 and 10"},
		{"pair_then_single", []int{4, 5, 9}, "4, 5, and 9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatRanges(tc.in); got != tc.want {
				t.Fatalf("FormatRanges(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseSpec(t *testing.T) {
	got, err := ParseSpec("1-5, 10, 15-17")
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	want := []int{1, 2, 3, 4, 5, 10, 15, 16, 17}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseSpec = %v, want %v", got, want)
	}
}

func TestParseSpecRejectsInvertedRange(t *testing.T) {
	if _, err := ParseSpec("9-3"); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

// Formatting then re-parsing must recover the original set exactly.
func TestFormatParseRoundTrip(t *testing.T) {
	sets := [][]int{
		{1},
		{1, 2},
		{1, 2, 3, 5, 6, 10},
		{1, 2, 3, 4, 5},
		{2, 4, 6, 8},
		{1, 3, 4, 5, 9, 10, 11, 12, 20},
	}
	for _, s := range sets {
		formatted := FormatRanges(s)
		back, err := ParseSpec(formatted)
		if err != nil {
			t.Fatalf("ParseSpec(%q): %v", formatted, err)
		}
		if !reflect.DeepEqual(back, s) {
			t.Fatalf("round trip %v -> %q -> %v", s, formatted, back)
		}
	}
}

func TestClaimWord(t *testing.T) {
	if ClaimWord([]int{1}) != "claim" || ClaimWord([]int{1, 2}) != "claims" {
		t.Fatal("claim word pluralization wrong")
	}
}
