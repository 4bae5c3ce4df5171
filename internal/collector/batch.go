package collector

import (
	"fmt"

	"poolScope/internal/model"
)

// SplitBatches partitions pools into consecutive batches of at most
// batchSize, preserving order.
func SplitBatches(pools []model.Pool, batchSize int) ([][]model.Pool, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}

	batches := make([][]model.Pool, 0, (len(pools)+batchSize-1)/batchSize)
	for start := 0; start < len(pools); start += batchSize {
		end := start + batchSize
		if end > len(pools) {
			end = len(pools)
		}
		batches = append(batches, pools[start:end])
	}

	return batches, nil
}
