package classify

// trigramSet builds the set of character trigrams of s, padded so short
// descriptions still produce a usable set.
func trigramSet(s string) map[string]struct{} {
	padded := "  " + s + "  "
	set := make(map[string]struct{}, len(padded))
	for i := 0; i+3 <= len(padded); i++ {
		set[padded[i:i+3]] = struct{}{}
	}
	return set
}

// trigramSimilarity is the Jaccard similarity of the two strings' trigram
// sets, in [0,1]. The metric is a policy choice; the acceptance threshold
// lives in Config, not here.
func trigramSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	setA := trigramSet(a)
	setB := trigramSet(b)

	var intersection int
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
