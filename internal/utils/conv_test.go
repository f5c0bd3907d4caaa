package utils

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToInt(t *testing.T) {
	cases := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{"3", 3, true},
		{" 7 ", 7, true},
		{3, 3, true},
		{float64(4), 4, true},
		{json.Number("5"), 5, true},
		{"2.0", 2, true},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := ToInt(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ToInt(%v) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
