package utils

import (
	"context"
	"fmt"
	"sync"
)

// BatchConfig 批量操作配置
type BatchConfig struct {
	// BatchSize 批量大小
	BatchSize int
	// Concurrency 并发数量
	Concurrency int
	// OnProgress 进度回调函数
	OnProgress func(progress BatchProgress)
}

// BatchProgress 批量操作进度
type BatchProgress struct {
	Completed  int
	Total      int
	Percentage int
	Success    int
	Failed     int
}

// DefaultBatchConfig 返回默认批量配置
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		BatchSize:   50,
		Concurrency: 5,
	}
}

// BatchQueryResult 批量查询结果
//
// Results 与输入一一对应；失败项保持零值并记录在 Errors 中。
type BatchQueryResult[T any] struct {
	Results []T
	Errors  []BatchError
	Total   int
	Success int
	Failed  int
}

// Succeeded 第 i 项是否成功
func (r *BatchQueryResult[T]) Succeeded(i int) bool {
	for _, e := range r.Errors {
		if e.Index == i {
			return false
		}
	}
	return i >= 0 && i < r.Total
}

// BatchError 批量操作错误
type BatchError struct {
	Index int
	Error error
}

// BatchQuery 批量查询
//
// 对一组输入分批并发调用查询函数；单项失败不影响其它项。
// ctx 取消后尚未开始的项记为失败。
//
// 示例：
//
//	res, err := BatchQuery(ctx, addresses, func(ctx context.Context, addr types.PublicKey, index int) (*account.AgentIdentity, error) {
//	    return accounts.FetchAgentIdentity(ctx, addr)
//	}, DefaultBatchConfig())
func BatchQuery[T any, R any](
	ctx context.Context,
	items []T,
	queryFn func(ctx context.Context, item T, index int) (R, error),
	config *BatchConfig,
) (*BatchQueryResult[R], error) {
	if queryFn == nil {
		return nil, fmt.Errorf("query function is required")
	}
	cfg := DefaultBatchConfig()
	if config != nil {
		*cfg = *config
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	result := &BatchQueryResult[R]{
		Results: make([]R, len(items)),
		Total:   len(items),
	}
	var mu sync.Mutex
	completed := 0

	record := func(idx int, err error) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if err != nil {
			result.Errors = append(result.Errors, BatchError{Index: idx, Error: err})
			result.Failed++
		} else {
			result.Success++
		}
		if cfg.OnProgress != nil {
			cfg.OnProgress(BatchProgress{
				Completed:  completed,
				Total:      len(items),
				Percentage: completed * 100 / len(items),
				Success:    result.Success,
				Failed:     result.Failed,
			})
		}
	}

	// 分批处理
	for batchIdx, batch := range BatchArray(items, cfg.BatchSize) {
		var wg sync.WaitGroup
		sem := make(chan struct{}, cfg.Concurrency)

		for i, item := range batch {
			globalIndex := batchIdx*cfg.BatchSize + i
			if err := ctx.Err(); err != nil {
				record(globalIndex, err)
				continue
			}
			wg.Add(1)
			go func(idx int, batchItem T) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				r, err := queryFn(ctx, batchItem, idx)
				if err == nil {
					// 每个 goroutine 写入不同下标
					result.Results[idx] = r
				}
				record(idx, err)
			}(globalIndex, item)
		}
		wg.Wait()
	}

	return result, nil
}

// BatchArray 将数组分批次处理
func BatchArray[T any](array []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	batches := make([][]T, 0, (len(array)+batchSize-1)/batchSize)
	for i := 0; i < len(array); i += batchSize {
		end := i + batchSize
		if end > len(array) {
			end = len(array)
		}
		batches = append(batches, array[i:end])
	}
	return batches
}

// ParallelExecute 并行执行多个操作
//
// 结果顺序与输入一致；任一项失败时返回第一个（按下标）错误。
func ParallelExecute[T any, R any](
	ctx context.Context,
	items []T,
	executeFn func(ctx context.Context, item T) (R, error),
	concurrency int,
) ([]R, error) {
	if concurrency <= 0 {
		concurrency = 5
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, item := range items {
		wg.Add(1)
		go func(index int, it T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				errs[index] = err
				return
			}
			results[index], errs[index] = executeFn(ctx, it)
		}(i, item)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("parallel execute failed at item %d: %w", i, err)
		}
	}
	return results, nil
}
