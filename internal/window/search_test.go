package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestIndex(t *testing.T) {
	values := []int64{1000, 5000, 10000, 20000, 60000}

	testCases := []struct {
		name   string
		target int64
		want   int
	}{
		{"between, closer to lower", 11000, 2},
		{"between, closer to upper", 19000, 3},
		{"below first", 500, 0},
		{"above last", 70000, 4},
		{"exact", 20000, 3},
		{"tie goes to earlier", 15000, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NearestIndex(values, tc.target))
		})
	}

	assert.Equal(t, -1, NearestIndex([]int64{}, 42))
	assert.Equal(t, -1, NearestIndex[float64](nil, 42))
}

func TestLastIndexLessOrEqual(t *testing.T) {
	values := []float64{100, 200, 200, 400}

	assert.Equal(t, -1, LastIndexLessOrEqual(values, 99))
	assert.Equal(t, 0, LastIndexLessOrEqual(values, 100))
	assert.Equal(t, 2, LastIndexLessOrEqual(values, 200))
	assert.Equal(t, 2, LastIndexLessOrEqual(values, 399))
	assert.Equal(t, 3, LastIndexLessOrEqual(values, 1e9))
	assert.Equal(t, -1, LastIndexLessOrEqual([]float64{}, 1))
}

func TestFirstIndexGreaterOrEqual(t *testing.T) {
	values := []float64{100, 200, 200, 400}

	assert.Equal(t, 0, FirstIndexGreaterOrEqual(values, -5))
	assert.Equal(t, 1, FirstIndexGreaterOrEqual(values, 200))
	assert.Equal(t, 3, FirstIndexGreaterOrEqual(values, 201))
	assert.Equal(t, 3, FirstIndexGreaterOrEqual(values, 400))
	assert.Equal(t, -1, FirstIndexGreaterOrEqual(values, 401))
	assert.Equal(t, -1, FirstIndexGreaterOrEqual([]float64{}, 1))
}

func TestCountInRange(t *testing.T) {
	values := []int64{0, 1000, 2000, 3000, 4000}

	assert.Equal(t, 3, CountInRange(values, 500, 3000))
	assert.Equal(t, 5, CountInRange(values, -1, 10000))
	assert.Equal(t, 0, CountInRange(values, 1500, 1900))
	assert.Equal(t, 0, CountInRange(values, 5000, 6000))
}
