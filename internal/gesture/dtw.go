package gesture

import "math"

// Step pairs a template frame with an attempt frame on a warping path.
type Step struct {
	Template int `json:"template"`
	Attempt  int `json:"attempt"`
}

// Warp aligns two sequences with Dynamic Time Warping. It returns the summed
// Euclidean cost along the optimal path and the path itself, from the first
// frames to the last. Empty input returns +Inf and no path.
func Warp(a, b [][]float64) (float64, []Step) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return math.Inf(1), nil
	}

	// (n+1) x (m+1) cost matrix with an infinite border
	cost := make([][]float64, n+1)
	for i := range cost {
		cost[i] = make([]float64, m+1)
		for j := range cost[i] {
			cost[i][j] = math.Inf(1)
		}
	}
	cost[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			d := euclidean(a[i-1], b[j-1])
			cost[i][j] = d + min(cost[i-1][j-1], cost[i-1][j], cost[i][j-1])
		}
	}

	// Walk back from the corner, preferring the diagonal on ties.
	path := make([]Step, 0, max(n, m))
	i, j := n, m
	for i > 0 && j > 0 {
		path = append(path, Step{Template: i - 1, Attempt: j - 1})
		diag, up, left := cost[i-1][j-1], cost[i-1][j], cost[i][j-1]
		switch {
		case diag <= up && diag <= left:
			i, j = i-1, j-1
		case up <= left:
			i--
		default:
			j--
		}
	}

	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return cost[n][m], path
}

// euclidean is the distance between two vectors. The shorter length wins
// when they differ.
func euclidean(a, b []float64) float64 {
	var sum float64
	for k := 0; k < len(a) && k < len(b); k++ {
		d := a[k] - b[k]
		sum += d * d
	}
	return math.Sqrt(sum)
}
