package stats

// AverageRanks assigns ranks to a descending-sorted slice of values, rank 1
// being the largest. Runs of exactly equal values share the average of the
// positions they span (two groups tied for second both rank 2.5).
func AverageRanks(sortedDesc []float64) []float64 {
	ranks := make([]float64, len(sortedDesc))
	for i := 0; i < len(sortedDesc); {
		j := i
		for j+1 < len(sortedDesc) && sortedDesc[j+1] == sortedDesc[i] {
			j++
		}
		avg := (float64(i+1) + float64(j+1)) / 2
		for k := i; k <= j; k++ {
			ranks[k] = avg
		}
		i = j + 1
	}
	return ranks
}
