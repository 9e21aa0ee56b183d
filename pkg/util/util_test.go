package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertList(t *testing.T) {
	out := ConvertList([]int{1, 2, 3}, func(i int) string { return string(rune('a' + i - 1)) })
	assert.Equal(t, []string{"a", "b", "c"}, out)
	assert.Empty(t, ConvertList([]int{}, func(i int) int { return i }))
}

func TestSliceIncludes(t *testing.T) {
	assert.True(t, SliceIncludes([]string{"u1", "c1"}, "c1"))
	assert.False(t, SliceIncludes([]string{"u1", "c1"}, "c2"))
	assert.False(t, SliceIncludes(nil, "c2"))
}

func TestPtrVal(t *testing.T) {
	assert.Equal(t, 5, Val(Ptr(5)))
	var p *string
	assert.Equal(t, "", Val(p))
}

func TestNewTimeoutContext(t *testing.T) {
	ctx, cancel := NewTimeoutContext(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	ctx2, cancel2 := NewTimeoutContext(context.Background(), time.Minute)
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.True(t, ok)
}

func TestMetricRegistrationIsIdempotent(t *testing.T) {
	a, err := GetCounterVec("util_test_counter_total", "test", "kind")
	require.NoError(t, err)
	b, err := GetCounterVec("util_test_counter_total", "test", "kind")
	require.NoError(t, err)
	assert.Same(t, a, b)

	h1, err := GetHistogramVec("util_test_seconds", "test", "op")
	require.NoError(t, err)
	h2, err := GetHistogramVec("util_test_seconds", "test", "op")
	require.NoError(t, err)
	assert.Same(t, h1, h2)
}
