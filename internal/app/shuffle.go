package app

import "math/rand"

// permutation returns a uniformly random ordering of [0, n) using Fisher–Yates.
func permutation(n int, rnd *rand.Rand) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// sampleIndexes picks k distinct indexes from [0, n) in random order.
// It runs a partial Fisher–Yates pass, so every k-subset is reachable and the cost is O(n).
func sampleIndexes(n, k int, rnd *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rnd.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
