package eagglo

// normalizePartition turns an initial cluster assignment into the start index
// and size of each cluster, relabelling ids densely in order of first
// appearance. A nil partition puts every observation in its own cluster.
// Every id must be non-negative and its observations must form one
// contiguous run.
func normalizePartition(partition []int, n int) (starts, sizes []int, err error) {
	if partition == nil {
		starts = make([]int, n)
		sizes = make([]int, n)
		for i := range starts {
			starts[i] = i
			sizes[i] = 1
		}
		return starts, sizes, nil
	}
	if len(partition) != n {
		return nil, nil, configErrorf("Partition", "length %d does not match %d observations", len(partition), n)
	}

	lastSeen := make(map[int]int)
	for x, id := range partition {
		if id < 0 {
			return nil, nil, configErrorf("Partition", "cluster id %d of observation %d is negative", id, x)
		}
		if x > 0 && id == partition[x-1] {
			sizes[len(sizes)-1]++
			lastSeen[id] = x
			continue
		}
		if prev, ok := lastSeen[id]; ok {
			return nil, nil, configErrorf("Partition",
				"cluster id %d is not contiguous: observations %d and %d are separated", id, prev, x)
		}
		lastSeen[id] = x
		starts = append(starts, x)
		sizes = append(sizes, 1)
	}
	return starts, sizes, nil
}
