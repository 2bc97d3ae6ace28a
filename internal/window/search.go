package window

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Number is any value an axis can be made of: timestamps, frequencies, levels.
type Number interface {
	constraints.Integer | constraints.Float
}

// All searches assume values sorted ascending. The result on unsorted input is unspecified.

// NearestIndex returns the index of the value closest to target, or -1 for an
// empty slice. Targets outside the range clamp to the first or last index, and
// a tie between two neighbours resolves to the earlier one.
func NearestIndex[T Number](values []T, target T) int {
	n := len(values)
	if n == 0 {
		return -1
	}

	i := sort.Search(n, func(i int) bool { return values[i] >= target })
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	}

	before, after := values[i-1], values[i]
	if distance(after, target) < distance(before, target) {
		return i
	}
	return i - 1
}

// LastIndexLessOrEqual returns the largest index i with values[i] <= target,
// or -1 if target is below every value.
func LastIndexLessOrEqual[T Number](values []T, target T) int {
	return sort.Search(len(values), func(i int) bool { return values[i] > target }) - 1
}

// FirstIndexGreaterOrEqual returns the smallest index i with values[i] >= target,
// or -1 if target is above every value.
func FirstIndexGreaterOrEqual[T Number](values []T, target T) int {
	i := sort.Search(len(values), func(i int) bool { return values[i] >= target })
	if i == len(values) {
		return -1
	}
	return i
}

// CountInRange returns the number of values within [lo, hi].
func CountInRange[T Number](values []T, lo, hi T) int {
	start := FirstIndexGreaterOrEqual(values, lo)
	end := LastIndexLessOrEqual(values, hi)
	if start < 0 || end < start {
		return 0
	}
	return end - start + 1
}

func distance[T Number](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}
