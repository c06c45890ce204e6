package knowledge

// OpposingPairs maps relation types to the relation that directly contradicts
// them on the same subject-object pair. Lookups are symmetric: registering
// likes->dislikes also registers dislikes->likes.
type OpposingPairs struct {
	pairs map[string]string
}

// NewOpposingPairs builds a symmetric pair table from one-directional input.
func NewOpposingPairs(pairs map[string]string) *OpposingPairs {
	table := make(map[string]string, len(pairs)*2)
	for a, b := range pairs {
		table[a] = b
		table[b] = a
	}
	return &OpposingPairs{pairs: table}
}

// DefaultOpposingPairs covers the relations the engine treats as mutually
// exclusive on the same object.
func DefaultOpposingPairs() *OpposingPairs {
	return NewOpposingPairs(map[string]string{
		"likes":    "dislikes",
		"trusts":   "distrusts",
		"wants_to": "avoids",
		"enjoys":   "hates",
		"agrees":   "disagrees",
	})
}

// Add registers a pair in both directions.
func (o *OpposingPairs) Add(a, b string) {
	o.pairs[a] = b
	o.pairs[b] = a
}

// Opposite returns the relation that directly opposes relationType, if one
// is registered.
func (o *OpposingPairs) Opposite(relationType string) (string, bool) {
	opp, ok := o.pairs[relationType]
	return opp, ok
}

// AreOpposing reports whether two relation types directly contradict.
func (o *OpposingPairs) AreOpposing(a, b string) bool {
	opp, ok := o.pairs[a]
	return ok && opp == b
}
