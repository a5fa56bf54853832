package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

type CountRow struct {
	Keys  []string
	Count int
}

// CountTable holds grouped row counts, one row per distinct key tuple.
type CountTable struct {
	Dimensions []string
	Rows       []CountRow
}

func (c *CountTable) Total() int {
	total := 0
	for _, r := range c.Rows {
		total += r.Count
	}
	return total
}

// Lookup returns the count for an exact key tuple, or zero.
func (c *CountTable) Lookup(keys ...string) int {
	for _, r := range c.Rows {
		if slices.Equal(r.Keys, keys) {
			return r.Count
		}
	}
	return 0
}

// Sort orders rows by each dimension in turn using CompareNatural.
func (c *CountTable) Sort() {
	slices.SortStableFunc(c.Rows, func(a, b CountRow) int {
		for i := range a.Keys {
			if d := CompareNatural(a.Keys[i], b.Keys[i]); d != 0 {
				return d
			}
		}
		return 0
	})
}

// CompareNatural orders numbers before everything else. Numbers compare by
// value and the rest lexicographically; equal values fall back to the text.
func CompareNatural(a, b string) int {
	x, errA := ParseNumber(a)
	y, errB := ParseNumber(b)
	switch {
	case errA == nil && errB == nil:
		if d := cmp.Compare(x, y); d != 0 {
			return d
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// ParseNumber parses finite values such as "82,500" or " 84.97".
func ParseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}
