package textutil

// CosineSimilarity is 0 when either side is nil or empty.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a, b
	if len(small.tokens) > len(large.tokens) {
		small, large = large, small
	}
	var dot float64
	for token, w := range small.tokens {
		if other, ok := large.tokens[token]; ok {
			dot += w * other
		}
	}
	if dot == 0 {
		return 0
	}
	return min(dot/(a.norm*b.norm), 1)
}
