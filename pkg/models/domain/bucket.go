package domain

import (
	"fmt"
	"math"
)

// Unclassified labels values that fall outside every bucket of a set.
const Unclassified = "unclassified"

// Bucket is the half-open interval [Lo, Hi). Hi may be +Inf.
type Bucket struct {
	Lo    float64
	Hi    float64
	Label string
}

func (b Bucket) Contains(v float64) bool {
	return v >= b.Lo && v < b.Hi
}

// BucketSet is an ascending, contiguous list of buckets.
type BucketSet []Bucket

func (bs BucketSet) Validate() error {
	if len(bs) == 0 {
		return fmt.Errorf("bucket set is empty")
	}

	labels := make(map[string]struct{}, len(bs))
	for i, b := range bs {
		if b.Label == "" || b.Label == Unclassified {
			return fmt.Errorf("bucket %d: invalid label %q", i, b.Label)
		}
		if _, dup := labels[b.Label]; dup {
			return fmt.Errorf("bucket %d: duplicate label %q", i, b.Label)
		}
		labels[b.Label] = struct{}{}

		if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) || !(b.Lo < b.Hi) {
			return fmt.Errorf("bucket %q: lower bound %v must be below upper bound %v", b.Label, b.Lo, b.Hi)
		}
		if i > 0 && bs[i-1].Hi != b.Lo {
			return fmt.Errorf("bucket %q: starts at %v but previous bucket ends at %v", b.Label, b.Lo, bs[i-1].Hi)
		}
	}
	return nil
}

// Unbounded reports whether the last bucket extends to +Inf.
func (bs BucketSet) Unbounded() bool {
	return len(bs) > 0 && math.IsInf(bs[len(bs)-1].Hi, 1)
}

// Classify returns the label of the bucket containing v, or Unclassified.
func (bs BucketSet) Classify(v float64) string {
	for _, b := range bs {
		if b.Contains(v) {
			return b.Label
		}
	}
	return Unclassified
}

func (bs BucketSet) Labels() []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Label
	}
	return out
}
