// internal/matching/pairing/blossom.go
package pairing

import (
	"context"
)

// Edge is one weighted candidate edge between two vertex indices.
type Edge struct {
	U, V   int
	Weight float64
}

// eps absorbs floating-point drift in slack and dual-variable comparisons.
// Edge weights are pair scores in [0,100], so 1e-10 is far below any real
// score difference.
const eps = 1e-10

// MaxWeightMatching computes a maximum-weight matching on a general
// undirected graph with n vertices numbered 0..n-1. The graph may contain
// odd cycles; the implementation is the classic O(n^3) blossom-shrinking
// algorithm driven by dual variables (Galil's formulation, following the
// well-known van Rantwijk reference structure).
//
// The result maps each vertex to its partner, or -1 when the vertex is left
// unmatched. Maximizing total weight is preferred over maximizing
// cardinality: a vertex stays unmatched when matching it cannot raise the
// total. The context is checked once per augmentation stage so oversized
// populations can be abandoned mid-run.
func MaxWeightMatching(ctx context.Context, n int, edges []Edge) ([]int, error) {
	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	if n == 0 || len(edges) == 0 {
		return result, nil
	}

	nedge := len(edges)

	maxweight := 0.0
	for _, e := range edges {
		if e.Weight > maxweight {
			maxweight = e.Weight
		}
	}

	// Edge k has endpoints 2k and 2k+1; endpoint[p] is the vertex at p.
	// Working with endpoints instead of (edge, side) pairs keeps the
	// direction bookkeeping to a single XOR.
	endpoint := make([]int, 2*nedge)
	for k, e := range edges {
		endpoint[2*k] = e.U
		endpoint[2*k+1] = e.V
	}

	// neighbend[v] lists the remote endpoints of the edges incident to v.
	neighbend := make([][]int, n)
	for k, e := range edges {
		neighbend[e.U] = append(neighbend[e.U], 2*k+1)
		neighbend[e.V] = append(neighbend[e.V], 2*k)
	}

	// mate[v] is the remote endpoint of v's matched edge, -1 if single.
	mate := make([]int, n)
	for i := range mate {
		mate[i] = -1
	}

	// Blossoms occupy ids n..2n-1; vertices double as trivial blossoms.
	// label: 0 free, 1 S, 2 T, 5 breadcrumb during scans, -1 recycled.
	label := make([]int, 2*n)
	labelend := make([]int, 2*n)
	inblossom := make([]int, n)
	blossomparent := make([]int, 2*n)
	blossomchilds := make([][]int, 2*n)
	blossombase := make([]int, 2*n)
	blossomendps := make([][]int, 2*n)
	bestedge := make([]int, 2*n)
	blossombestedges := make([][]int, 2*n)
	unusedblossoms := make([]int, 0, n)
	dualvar := make([]float64, 2*n)

	for i := 0; i < 2*n; i++ {
		labelend[i] = -1
		blossomparent[i] = -1
		bestedge[i] = -1
	}
	for v := 0; v < n; v++ {
		inblossom[v] = v
		blossombase[v] = v
		dualvar[v] = maxweight
	}
	for b := n; b < 2*n; b++ {
		blossombase[b] = -1
		unusedblossoms = append(unusedblossoms, b)
	}

	allowedge := make([]bool, nedge)
	queue := make([]int, 0, n)

	// slack of edge k under the current duals; weights are doubled in the
	// formulation so section of duals can move in half steps.
	slack := func(k int) float64 {
		return dualvar[edges[k].U] + dualvar[edges[k].V] - 2*edges[k].Weight
	}

	// at reads a slice with Python-style negative indexing; the blossom
	// traversals below walk child lists in both directions and rely on it.
	at := func(s []int, i int) int {
		if i < 0 {
			i += len(s)
		}
		return s[i]
	}

	indexOf := func(s []int, x int) int {
		for i, v := range s {
			if v == x {
				return i
			}
		}
		return -1
	}

	var blossomLeaves func(b int, out []int) []int
	blossomLeaves = func(b int, out []int) []int {
		if b < n {
			return append(out, b)
		}
		for _, t := range blossomchilds[b] {
			out = blossomLeaves(t, out)
		}
		return out
	}

	// assignLabel gives vertex w (and its top-level blossom) label t,
	// acquired through endpoint p. T-labels immediately propagate an
	// S-label to the mate of the blossom base.
	var assignLabel func(w, t, p int)
	assignLabel = func(w, t, p int) {
		b := inblossom[w]
		label[w] = t
		label[b] = t
		labelend[w] = p
		labelend[b] = p
		bestedge[w] = -1
		bestedge[b] = -1
		if t == 1 {
			queue = blossomLeaves(b, queue)
		} else if t == 2 {
			base := blossombase[b]
			assignLabel(endpoint[mate[base]], 1, mate[base]^1)
		}
	}

	// scanBlossom traces the alternating trees upward from v and w. When
	// the two paths meet it returns the base of the new blossom; when they
	// reach two distinct roots it returns -1, meaning an augmenting path
	// was found.
	scanBlossom := func(v, w int) int {
		var path []int
		base := -1
		for v != -1 || w != -1 {
			b := inblossom[v]
			if label[b]&4 != 0 {
				base = blossombase[b]
				break
			}
			path = append(path, b)
			label[b] = 5
			if labelend[b] == -1 {
				v = -1
			} else {
				v = endpoint[labelend[b]]
				b = inblossom[v]
				v = endpoint[labelend[b]]
			}
			if w != -1 {
				v, w = w, v
			}
		}
		for _, b := range path {
			label[b] = 1
		}
		return base
	}

	// addBlossom shrinks the odd cycle through edge k and base into a new
	// blossom and rebuilds the least-slack edge lists for it.
	addBlossom := func(base, k int) {
		v, w := edges[k].U, edges[k].V
		bb := inblossom[base]
		bv := inblossom[v]
		bw := inblossom[w]

		b := unusedblossoms[len(unusedblossoms)-1]
		unusedblossoms = unusedblossoms[:len(unusedblossoms)-1]

		blossombase[b] = base
		blossomparent[b] = -1
		blossomparent[bb] = b

		var path, endps []int

		for bv != bb {
			blossomparent[bv] = b
			path = append(path, bv)
			endps = append(endps, labelend[bv])
			v = endpoint[labelend[bv]]
			bv = inblossom[v]
		}
		path = append(path, bb)
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		for i, j := 0, len(endps)-1; i < j; i, j = i+1, j-1 {
			endps[i], endps[j] = endps[j], endps[i]
		}
		endps = append(endps, 2*k)

		for bw != bb {
			blossomparent[bw] = b
			path = append(path, bw)
			endps = append(endps, labelend[bw]^1)
			w = endpoint[labelend[bw]]
			bw = inblossom[w]
		}

		blossomchilds[b] = path
		blossomendps[b] = endps
		label[b] = 1
		labelend[b] = labelend[bb]
		dualvar[b] = 0

		for _, leaf := range blossomLeaves(b, nil) {
			if label[inblossom[leaf]] == 2 {
				// Former T-vertices become S-vertices inside the new
				// S-blossom and must be scanned.
				queue = append(queue, leaf)
			}
			inblossom[leaf] = b
		}

		bestedgeto := make([]int, 2*n)
		for i := range bestedgeto {
			bestedgeto[i] = -1
		}
		for _, child := range path {
			var nblists [][]int
			if blossombestedges[child] == nil {
				for _, leaf := range blossomLeaves(child, nil) {
					list := make([]int, len(neighbend[leaf]))
					for i, p := range neighbend[leaf] {
						list[i] = p / 2
					}
					nblists = append(nblists, list)
				}
			} else {
				nblists = [][]int{blossombestedges[child]}
			}
			for _, nblist := range nblists {
				for _, k2 := range nblist {
					j := edges[k2].V
					if inblossom[j] == b {
						j = edges[k2].U
					}
					bj := inblossom[j]
					if bj != b && label[bj] == 1 &&
						(bestedgeto[bj] == -1 || slack(k2) < slack(bestedgeto[bj])) {
						bestedgeto[bj] = k2
					}
				}
			}
			blossombestedges[child] = nil
			bestedge[child] = -1
		}
		var best []int
		for _, k2 := range bestedgeto {
			if k2 != -1 {
				best = append(best, k2)
			}
		}
		blossombestedges[b] = best
		bestedge[b] = -1
		for _, k2 := range blossombestedges[b] {
			if bestedge[b] == -1 || slack(k2) < slack(bestedge[b]) {
				bestedge[b] = k2
			}
		}
	}

	// expandBlossom dissolves blossom b back into its children, relabeling
	// them when the expansion happens mid-stage on a T-blossom.
	var expandBlossom func(b int, endstage bool)
	expandBlossom = func(b int, endstage bool) {
		for _, s := range blossomchilds[b] {
			blossomparent[s] = -1
			if s < n {
				inblossom[s] = s
			} else if endstage && dualvar[s] <= eps {
				expandBlossom(s, endstage)
			} else {
				for _, leaf := range blossomLeaves(s, nil) {
					inblossom[leaf] = s
				}
			}
		}

		if !endstage && label[b] == 2 {
			entrychild := inblossom[endpoint[labelend[b]^1]]
			j := indexOf(blossomchilds[b], entrychild)
			var jstep, endptrick int
			if j&1 != 0 {
				j -= len(blossomchilds[b])
				jstep = 1
				endptrick = 0
			} else {
				jstep = -1
				endptrick = 1
			}
			p := labelend[b]
			for j != 0 {
				label[endpoint[p^1]] = 0
				label[endpoint[at(blossomendps[b], j-endptrick)^endptrick^1]] = 0
				assignLabel(endpoint[p^1], 2, p)
				allowedge[at(blossomendps[b], j-endptrick)/2] = true
				j += jstep
				p = at(blossomendps[b], j-endptrick) ^ endptrick
				allowedge[p/2] = true
				j += jstep
			}
			// The base sub-blossom keeps label T without stepping through
			// to its mate.
			bv := at(blossomchilds[b], j)
			label[endpoint[p^1]] = 2
			label[bv] = 2
			labelend[endpoint[p^1]] = p
			labelend[bv] = p
			bestedge[bv] = -1
			j += jstep
			for at(blossomchilds[b], j) != entrychild {
				bv = at(blossomchilds[b], j)
				if label[bv] == 1 {
					j += jstep
					continue
				}
				reached := -1
				for _, leaf := range blossomLeaves(bv, nil) {
					if label[leaf] != 0 {
						reached = leaf
						break
					}
				}
				if reached != -1 {
					label[reached] = 0
					label[endpoint[mate[blossombase[bv]]]] = 0
					assignLabel(reached, 2, labelend[reached])
				}
				j += jstep
			}
		}

		label[b] = -1
		labelend[b] = -1
		blossomchilds[b] = nil
		blossomendps[b] = nil
		blossombase[b] = -1
		blossombestedges[b] = nil
		bestedge[b] = -1
		unusedblossoms = append(unusedblossoms, b)
	}

	// augmentBlossom swaps matched and unmatched edges around blossom b so
	// that vertex v becomes the new base, recursing into sub-blossoms.
	var augmentBlossom func(b, v int)
	augmentBlossom = func(b, v int) {
		t := v
		for blossomparent[t] != b {
			t = blossomparent[t]
		}
		if t >= n {
			augmentBlossom(t, v)
		}

		i := indexOf(blossomchilds[b], t)
		j := i
		var jstep, endptrick int
		if i&1 != 0 {
			j -= len(blossomchilds[b])
			jstep = 1
			endptrick = 0
		} else {
			jstep = -1
			endptrick = 1
		}
		for j != 0 {
			j += jstep
			t = at(blossomchilds[b], j)
			p := at(blossomendps[b], j-endptrick) ^ endptrick
			if t >= n {
				augmentBlossom(t, endpoint[p])
			}
			j += jstep
			t = at(blossomchilds[b], j)
			if t >= n {
				augmentBlossom(t, endpoint[p^1])
			}
			mate[endpoint[p]] = p ^ 1
			mate[endpoint[p^1]] = p
		}

		rotatedChilds := make([]int, 0, len(blossomchilds[b]))
		rotatedChilds = append(rotatedChilds, blossomchilds[b][i:]...)
		rotatedChilds = append(rotatedChilds, blossomchilds[b][:i]...)
		blossomchilds[b] = rotatedChilds

		rotatedEndps := make([]int, 0, len(blossomendps[b]))
		rotatedEndps = append(rotatedEndps, blossomendps[b][i:]...)
		rotatedEndps = append(rotatedEndps, blossomendps[b][:i]...)
		blossomendps[b] = rotatedEndps

		blossombase[b] = blossombase[blossomchilds[b][0]]
	}

	// augmentMatching flips match/non-match along the augmenting path
	// through edge k, walking both trees down to their roots.
	augmentMatching := func(k int) {
		starts := [2][2]int{
			{edges[k].U, 2*k + 1},
			{edges[k].V, 2 * k},
		}
		for _, start := range starts {
			s, p := start[0], start[1]
			for {
				bs := inblossom[s]
				if bs >= n {
					augmentBlossom(bs, s)
				}
				mate[s] = p
				if labelend[bs] == -1 {
					break
				}
				t := endpoint[labelend[bs]]
				bt := inblossom[t]
				next := endpoint[labelend[bt]]
				j := endpoint[labelend[bt]^1]
				if bt >= n {
					augmentBlossom(bt, j)
				}
				mate[j] = labelend[bt]
				p = labelend[bt] ^ 1
				s = next
			}
		}
	}

	// Each stage finds one augmenting path; at most n stages.
	for stage := 0; stage < n; stage++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range label {
			label[i] = 0
		}
		for i := range bestedge {
			bestedge[i] = -1
		}
		for i := n; i < 2*n; i++ {
			blossombestedges[i] = nil
		}
		for i := range allowedge {
			allowedge[i] = false
		}
		queue = queue[:0]

		for v := 0; v < n; v++ {
			if mate[v] == -1 && label[inblossom[v]] == 0 {
				assignLabel(v, 1, -1)
			}
		}

		augmented := false
		for {
			for len(queue) > 0 && !augmented {
				v := queue[len(queue)-1]
				queue = queue[:len(queue)-1]

				for _, p := range neighbend[v] {
					k := p / 2
					w := endpoint[p]
					if inblossom[v] == inblossom[w] {
						continue
					}
					var kslack float64
					if !allowedge[k] {
						kslack = slack(k)
						if kslack <= eps {
							allowedge[k] = true
						}
					}
					if allowedge[k] {
						if label[inblossom[w]] == 0 {
							assignLabel(w, 2, p^1)
						} else if label[inblossom[w]] == 1 {
							base := scanBlossom(v, w)
							if base >= 0 {
								addBlossom(base, k)
							} else {
								augmentMatching(k)
								augmented = true
								break
							}
						} else if label[w] == 0 {
							label[w] = 2
							labelend[w] = p ^ 1
						}
					} else if label[inblossom[w]] == 1 {
						b := inblossom[v]
						if bestedge[b] == -1 || kslack < slack(bestedge[b]) {
							bestedge[b] = k
						}
					} else if label[w] == 0 {
						if bestedge[w] == -1 || kslack < slack(bestedge[w]) {
							bestedge[w] = k
						}
					}
				}
			}
			if augmented {
				break
			}

			// No augmenting path under the current duals: compute the
			// largest safe dual change.
			deltatype := 1
			delta := dualvar[0]
			for v := 1; v < n; v++ {
				if dualvar[v] < delta {
					delta = dualvar[v]
				}
			}
			deltaedge, deltablossom := -1, -1

			for v := 0; v < n; v++ {
				if label[inblossom[v]] == 0 && bestedge[v] != -1 {
					if d := slack(bestedge[v]); d < delta {
						delta = d
						deltatype = 2
						deltaedge = bestedge[v]
					}
				}
			}
			for b := 0; b < 2*n; b++ {
				if blossomparent[b] == -1 && label[b] == 1 && bestedge[b] != -1 {
					if d := slack(bestedge[b]) / 2; d < delta {
						delta = d
						deltatype = 3
						deltaedge = bestedge[b]
					}
				}
			}
			for b := n; b < 2*n; b++ {
				if blossombase[b] >= 0 && blossomparent[b] == -1 && label[b] == 2 && dualvar[b] < delta {
					delta = dualvar[b]
					deltatype = 4
					deltablossom = b
				}
			}

			for v := 0; v < n; v++ {
				switch label[inblossom[v]] {
				case 1:
					dualvar[v] -= delta
				case 2:
					dualvar[v] += delta
				}
			}
			for b := n; b < 2*n; b++ {
				if blossombase[b] >= 0 && blossomparent[b] == -1 {
					switch label[b] {
					case 1:
						dualvar[b] += delta
					case 2:
						dualvar[b] -= delta
					}
				}
			}

			if deltatype == 1 {
				// Minimum vertex dual reached zero: the matching is of
				// maximum weight.
				break
			}

			switch deltatype {
			case 2:
				allowedge[deltaedge] = true
				i := edges[deltaedge].U
				if label[inblossom[i]] == 0 {
					i = edges[deltaedge].V
				}
				queue = append(queue, i)
			case 3:
				allowedge[deltaedge] = true
				queue = append(queue, edges[deltaedge].U)
			case 4:
				expandBlossom(deltablossom, false)
			}
		}

		if !augmented {
			break
		}

		// End of stage: dissolve S-blossoms whose dual dropped to zero so
		// the next stage starts from clean top-level structure.
		for b := n; b < 2*n; b++ {
			if blossomparent[b] == -1 && blossombase[b] >= 0 && label[b] == 1 && dualvar[b] <= eps {
				expandBlossom(b, true)
			}
		}
	}

	for v := 0; v < n; v++ {
		if mate[v] >= 0 {
			result[v] = endpoint[mate[v]]
		}
	}
	return result, nil
}
