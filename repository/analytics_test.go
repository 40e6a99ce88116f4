package repository

import (
	"testing"

	"petopia/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeBuckets(t *testing.T) {
	bounds := []float64{0, 50, 100}
	rows := []bucketRow{
		{ID: 50.0, Count: 2, Revenue: 140},
		{ID: "other", Count: 1, Revenue: 320},
		{ID: int32(0), Count: 4, Revenue: 80},
	}

	got, err := mergeBuckets(bounds, rows)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 0.0, got[0].Min)
	require.NotNil(t, got[0].Max)
	assert.Equal(t, 50.0, *got[0].Max)
	assert.Equal(t, int64(4), got[0].Count)

	assert.Equal(t, int64(2), got[1].Count)
	assert.Equal(t, 140.0, got[1].Revenue)

	assert.Nil(t, got[2].Max)
	assert.Equal(t, int64(1), got[2].Count)
	assert.Equal(t, 320.0, got[2].Revenue)
}

func TestMergeBuckets_EmptyRangesKept(t *testing.T) {
	got, err := mergeBuckets([]float64{0, 10, 20}, nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, b := range got {
		assert.Zero(t, b.Count)
	}
}

func TestMergeBuckets_UnknownBoundary(t *testing.T) {
	_, err := mergeBuckets([]float64{0, 10}, []bucketRow{{ID: 7.0}})
	assert.Error(t, err)
}

func TestMergeBuckets_RaisedLowerBound(t *testing.T) {
	_, err := mergeBuckets([]float64{10, 20, 30}, []bucketRow{{ID: "other", Count: 1, Revenue: 5}})
	assert.Error(t, err)

	bounds, err := pipeline.BucketBoundaries([]float64{10, 20, 30})
	require.NoError(t, err)
	got, err := mergeBuckets(bounds, []bucketRow{
		{ID: 0.0, Count: 1, Revenue: 5},
		{ID: "other", Count: 2, Revenue: 90},
	})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, 0.0, got[0].Min)
	require.NotNil(t, got[0].Max)
	assert.Equal(t, 10.0, *got[0].Max)
	assert.Equal(t, int64(1), got[0].Count)
	assert.Equal(t, 5.0, got[0].Revenue)

	assert.Equal(t, 30.0, got[3].Min)
	assert.Nil(t, got[3].Max)
	assert.Equal(t, int64(2), got[3].Count)
}
