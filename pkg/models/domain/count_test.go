package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareNatural(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{a: "9", b: "10", want: -1},
		{a: "1,204", b: "21", want: 1},
		{a: "10", b: "1a", want: -1},
		{a: "1a", b: "9", want: 1},
		{a: "B1", b: "-1", want: 1},
		{a: "강남구", b: "송파구", want: -1},
		{a: "10", b: "10.0", want: -1},
		{a: "Inf", b: "9", want: 1},
		{a: "x", b: "x", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareNatural(tt.a, tt.b))
			assert.Equal(t, -tt.want, CompareNatural(tt.b, tt.a))
		})
	}
}

func TestCompareNatural_Transitive(t *testing.T) {
	values := []string{"-1", "9", "10", "10.0", "1a", "B1", "", "Inf", "NaN", "1,204", "강남구"}
	for _, a := range values {
		for _, b := range values {
			for _, c := range values {
				if CompareNatural(a, b) <= 0 && CompareNatural(b, c) <= 0 {
					assert.LessOrEqual(t, CompareNatural(a, c), 0, "%q <= %q <= %q", a, b, c)
				}
			}
		}
	}
}

func TestParseNumber(t *testing.T) {
	v, err := ParseNumber(" 82,500 ")
	assert.NoError(t, err)
	assert.Equal(t, 82500.0, v)

	for _, in := range []string{"", "abc", "Inf", "+Inf", "-inf", "NaN"} {
		_, err := ParseNumber(in)
		assert.Error(t, err, "input %q", in)
	}
}
