package analyzer

import "sort"

// SetCoveredLines repairs covered lines that point past the end of a file.
//
// Entries are visited in ascending line order. A covered entry (hits > 0)
// whose line exceeds trueLineCount is moved to the lowest line in
// 1..trueLineCount that is not yet present in the result; if every line is
// taken, the entry is dropped. All other entries keep their line number. The
// input map is not modified.
func SetCoveredLines(trueLineCount int, lines map[int]int) map[int]int {
	keys := make([]int, 0, len(lines))
	for n := range lines {
		keys = append(keys, n)
	}
	sort.Ints(keys)

	out := make(map[int]int, len(lines))
	next := 1 // every line below next is known to be taken
	for _, n := range keys {
		hits := lines[n]
		if hits <= 0 || n <= trueLineCount {
			out[n] = hits
			continue
		}
		for next <= trueLineCount {
			if _, taken := out[next]; !taken {
				break
			}
			next++
		}
		if next > trueLineCount {
			continue
		}
		out[next] = hits
		next++
	}
	return out
}
