package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchQuery(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		items  []int
		config *BatchConfig
	}{
		{
			name:   "empty items",
			items:  []int{},
			config: DefaultBatchConfig(),
		},
		{
			name:   "single item",
			items:  []int{1},
			config: DefaultBatchConfig(),
		},
		{
			name:  "multiple batches",
			items: []int{1, 2, 3, 4, 5},
			config: &BatchConfig{
				BatchSize:   2,
				Concurrency: 2,
			},
		},
		{
			name:   "nil config uses defaults",
			items:  []int{1, 2, 3},
			config: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := BatchQuery(ctx, tt.items, func(ctx context.Context, item int, index int) (int, error) {
				return item * 2, nil
			}, tt.config)
			require.NoError(t, err)

			require.Len(t, result.Results, len(tt.items))
			assert.Equal(t, len(tt.items), result.Total)
			assert.Equal(t, len(tt.items), result.Success)
			for i, item := range tt.items {
				assert.Equal(t, item*2, result.Results[i])
				assert.True(t, result.Succeeded(i))
			}
		})
	}
}

func TestBatchQuery_Progress(t *testing.T) {
	var calls int32
	var last BatchProgress
	cfg := &BatchConfig{
		BatchSize:   2,
		Concurrency: 1,
		OnProgress: func(p BatchProgress) {
			atomic.AddInt32(&calls, 1)
			assert.Equal(t, 5, p.Total)
			last = p
		},
	}

	_, err := BatchQuery(context.Background(), []int{1, 2, 3, 4, 5}, func(ctx context.Context, item int, index int) (int, error) {
		return item, nil
	}, cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, 100, last.Percentage)
}

func TestBatchQuery_WithErrors(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	result, err := BatchQuery(context.Background(), items, func(ctx context.Context, item int, index int) (int, error) {
		if item == 3 {
			return 0, errors.New("account not found")
		}
		return item * 2, nil
	}, DefaultBatchConfig())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Index)
	assert.False(t, result.Succeeded(2))
	assert.Zero(t, result.Results[2])
	assert.Equal(t, 10, result.Results[4])
}

func TestBatchQuery_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := BatchQuery(ctx, []int{1, 2, 3}, func(ctx context.Context, item int, index int) (int, error) {
		return item, nil
	}, DefaultBatchConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Failed)
	for _, e := range result.Errors {
		assert.ErrorIs(t, e.Error, context.Canceled)
	}
}

func TestBatchQuery_NilFunction(t *testing.T) {
	_, err := BatchQuery[int, int](context.Background(), []int{1}, nil, nil)
	assert.Error(t, err)
}

func TestParallelExecute(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		items       []int
		concurrency int
	}{
		{"empty items", []int{}, 5},
		{"single item", []int{1}, 5},
		{"multiple items", []int{1, 2, 3, 4, 5}, 3},
		{"low concurrency", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 2},
		{"default concurrency", []int{1, 2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := ParallelExecute(ctx, tt.items, func(ctx context.Context, item int) (int, error) {
				return item * 2, nil
			}, tt.concurrency)
			require.NoError(t, err)
			require.Len(t, results, len(tt.items))
			for i, r := range results {
				assert.Equal(t, tt.items[i]*2, r)
			}
		})
	}
}

func TestParallelExecute_FirstErrorByIndex(t *testing.T) {
	errLow := errors.New("low")
	errHigh := errors.New("high")

	_, err := ParallelExecute(context.Background(), []int{1, 2, 3, 4, 5}, func(ctx context.Context, item int) (int, error) {
		switch item {
		case 2:
			return 0, errLow
		case 4:
			return 0, errHigh
		}
		return item, nil
	}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, errLow)
	assert.Contains(t, err.Error(), "item 1")
}

func TestBatchArray(t *testing.T) {
	tests := []struct {
		name        string
		array       []int
		batchSize   int
		wantBatches int
	}{
		{"empty array", []int{}, 5, 0},
		{"single batch", []int{1, 2, 3}, 5, 1},
		{"multiple batches", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 3, 4},
		{"exact batch size", []int{1, 2, 3, 4, 5}, 5, 1},
		{"non-positive size", []int{1, 2}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := BatchArray(tt.array, tt.batchSize)
			assert.Len(t, batches, tt.wantBatches)

			var flat []int
			for _, batch := range batches {
				flat = append(flat, batch...)
			}
			assert.Equal(t, len(tt.array), len(flat))
			if len(tt.array) > 0 {
				assert.Equal(t, tt.array, flat)
			}
		})
	}
}

func TestDefaultBatchConfig(t *testing.T) {
	config := DefaultBatchConfig()
	assert.Equal(t, 50, config.BatchSize)
	assert.Equal(t, 5, config.Concurrency)
}
