package utils

// BatchUint64Range splits the inclusive id range [1, maxID] into batches of at
// most batchSize ids, preserving ascending order.
func BatchUint64Range(maxID uint64, batchSize int) [][]uint64 {
	if maxID == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = int(maxID)
	}

	var batches [][]uint64
	batch := make([]uint64, 0, batchSize)
	for id := uint64(1); id <= maxID; id++ {
		batch = append(batch, id)
		if len(batch) == batchSize {
			batches = append(batches, batch)
			batch = make([]uint64, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}
	return batches
}
