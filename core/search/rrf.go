package search

import "sort"

// rrfConstant is the k constant for reciprocal rank fusion. 60 is the value
// commonly used in information retrieval literature.
const rrfConstant = 60

// fuseRRF merges two ranked result lists with reciprocal rank fusion. Items
// appearing in both legs accumulate both rank scores, so agreement between
// legs outranks a high score in either one alone.
func fuseRRF(legs ...[]ScoredItem) []ScoredItem {
	combined := make(map[string]float64)
	byID := make(map[string]Item)

	for _, leg := range legs {
		for rank, r := range leg {
			combined[r.Item.ID] += 1.0 / float64(rrfConstant+rank+1)
			if _, seen := byID[r.Item.ID]; !seen {
				byID[r.Item.ID] = r.Item
			}
		}
	}

	fused := make([]ScoredItem, 0, len(combined))
	for id, score := range combined {
		fused = append(fused, ScoredItem{Item: byID[id], Score: score})
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].Item.ID < fused[j].Item.ID
	})
	return fused
}
