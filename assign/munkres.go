package assign

// minCostMatching solves the square assignment problem for the given cost
// matrix using the Kuhn-Munkres algorithm with row/column potentials
// (shortest augmenting path formulation). Runs in O(n^3).
//
// Parameters:
//   - cost: Square n x n cost matrix
//
// Returns:
//   - []int: match[i] is the column assigned to row i; a permutation of 0..n-1
func minCostMatching(cost [][]int64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}

	const inf = int64(1) << 60

	// 1-based arrays per the classic formulation. p[j] holds the row matched
	// to column j; column 0 is the virtual unmatched column.
	u := make([]int64, n+1)
	v := make([]int64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]int64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}

		// Grow an alternating tree from row i until a free column is found.
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		// Unwind the augmenting path.
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	match := make([]int, n)
	for j := 1; j <= n; j++ {
		match[p[j]-1] = j - 1
	}

	return match
}
