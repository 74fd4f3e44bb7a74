package textutil

// Ratio reports how similar two strings are as a value in [0, 1], computed as
// 2*LCS(a, b) / (len(a)+len(b)) over runes. Equal strings score 1.0, strings
// with no runes in common score 0.0, and the function is symmetric.
//
// Callers compare normalized keys, so case and punctuation differences should
// be resolved with NormalizeKey before scoring.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	// Two-row dynamic program for the longest common subsequence.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}
