package inference

// ClassCounts maps a category label to its number of occurrences. Only labels that were observed
// appear as keys.
type ClassCounts map[string]int

// CountClasses tallies predictions by label in a single pass.
//
// Arguments:
//   - set: The predictions to count. A nil set yields empty counts.
//
// Returns:
//   - ClassCounts: One entry per distinct label; values sum to set.Len().
func CountClasses(set *PredictionSet) ClassCounts {
	counts := make(ClassCounts)
	if set == nil {
		return counts
	}
	for i := range set.Predictions {
		counts[set.Predictions[i].Label()]++
	}
	return counts
}

// Get returns the count for label, or 0 when it was never observed.
func (c ClassCounts) Get(label string) int {
	return c[label]
}

// Total sums every label, including labels outside the known categories.
func (c ClassCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
