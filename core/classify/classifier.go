package classify

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// Pattern Classifier
// =============================================================================
//
// Classify is a pure function of the query plus the static pattern table: no
// I/O, no mutable state, safe for concurrent use. It never fails; ambiguity
// is expressed through the confidence score, not through errors.

const (
	// defaultConfidence is assigned when no pattern group matches and the
	// classifier falls back to factual recall.
	defaultConfidence = 0.5

	// fuzzyThreshold triggers the exemplar similarity fallback. Pattern
	// matches at or above this confidence are trusted as-is.
	fuzzyThreshold = 0.7

	// baseMatchConfidence is the confidence for a single keyword match.
	// Additional matches in the same group raise it toward maxConfidence.
	baseMatchConfidence = 0.7
	perMatchBonus       = 0.08
	maxConfidence       = 0.95
)

// ClassifierConfig tunes the classifier. Zero values select defaults.
type ClassifierConfig struct {
	// FuzzyThreshold is the confidence below which the exemplar fallback
	// runs. Defaults to 0.7.
	FuzzyThreshold float64

	// Logger receives one debug record per classification.
	Logger *slog.Logger
}

// Classifier classifies raw query strings into an intent and a retrieval
// strategy. The zero value is not usable; construct with NewClassifier.
type Classifier struct {
	groups    []patternGroup
	threshold float64
	logger    *slog.Logger
}

// NewClassifier creates a Classifier with the static pattern table.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	threshold := cfg.FuzzyThreshold
	if threshold <= 0 {
		threshold = fuzzyThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		groups:    patternGroups(),
		threshold: threshold,
		logger:    logger,
	}
}

// Classify classifies a query. An empty or unparseable query returns the
// default intent with confidence 0 and no matched patterns.
func (c *Classifier) Classify(query string) Classification {
	normalized := normalize(query)
	if normalized == "" {
		return Classification{
			Intent:            IntentFactualRecall,
			Strategy:          StrategyContentMatch,
			Confidence:        0,
			IsTemporal:        false,
			TemporalDirection: DirectionNone,
			Reasoning:         "empty query, defaulting to factual recall",
		}
	}

	result := c.matchGroups(normalized)
	if result.Confidence < c.threshold {
		result = c.applyFuzzyFallback(normalized, result)
	}
	result.Strategy = strategyFor(result.Intent, result.IsTemporal, hasEmotionalOvertone(normalized))
	result.Entity = extractEntity(normalized)

	c.logger.Debug("classified query",
		"intent", result.Intent,
		"strategy", result.Strategy,
		"confidence", result.Confidence,
		"temporal", result.IsTemporal,
		"patterns", len(result.MatchedPatterns),
		"table", PatternTableVersion)

	return result
}

// matchGroups walks the pattern groups in priority order and classifies from
// the first group with any keyword hit.
func (c *Classifier) matchGroups(query string) Classification {
	for _, group := range c.groups {
		matched := matchKeywords(query, group.keywords)
		if len(matched) == 0 {
			continue
		}
		return c.classifyFromGroup(query, group.intent, matched)
	}

	return Classification{
		Intent:            IntentFactualRecall,
		Confidence:        defaultConfidence,
		IsTemporal:        false,
		TemporalDirection: DirectionNone,
		Reasoning:         "no pattern group matched, defaulting to factual recall",
	}
}

func (c *Classifier) classifyFromGroup(query string, intent Intent, matched []string) Classification {
	confidence := baseMatchConfidence + perMatchBonus*float64(len(matched)-1)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	result := Classification{
		Intent:          intent,
		Confidence:      confidence,
		MatchedPatterns: matched,
		Reasoning: fmt.Sprintf("matched %d %s pattern(s), longest %q (table %s)",
			len(matched), intent, matched[0], PatternTableVersion),
		TemporalDirection: DirectionNone,
	}

	if intent == IntentTemporalAnalysis {
		result.IsTemporal = true
		result.TemporalDirection = temporalDirection(matched)
	}
	return result
}

// applyFuzzyFallback scores the query against canonical exemplars and keeps
// whichever classification is more confident. A winning fuzzy pass replaces
// the pattern-match intent outright.
func (c *Classifier) applyFuzzyFallback(query string, patternResult Classification) Classification {
	intent, score := bestExemplarMatch(query)
	if score <= patternResult.Confidence {
		return patternResult
	}

	result := patternResult
	result.Intent = intent
	result.Confidence = score
	result.Reasoning = fmt.Sprintf("fuzzy exemplar match for %s at %.2f overrode pattern result (%s)",
		intent, score, patternResult.Reasoning)
	if intent == IntentTemporalAnalysis {
		result.IsTemporal = true
		if result.TemporalDirection == "" {
			result.TemporalDirection = DirectionNone
		}
	}
	return result
}

// matchKeywords returns every keyword contained in the query, longest first,
// so that MatchedPatterns[0] is the tie-break winner within the group.
func matchKeywords(query string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if ContainsWord(query, kw) {
			matched = append(matched, kw)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if len(matched[i]) != len(matched[j]) {
			return len(matched[i]) > len(matched[j])
		}
		return matched[i] < matched[j]
	})
	return matched
}

// ContainsWord reports whether text contains the keyword on word boundaries.
// "ago" must not match inside "agonize". The retrieval gate shares this check
// for its recall keywords.
func ContainsWord(text, keyword string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], keyword)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(keyword)
		beforeOK := start == 0 || !isWordRune(rune(text[start-1]))
		afterOK := end == len(text) || !isWordRune(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// temporalDirection decides earliest vs latest from the matched keyword set.
// Dated references ("yesterday", "last week") are temporal without a
// direction: the date itself anchors the query.
func temporalDirection(matched []string) TemporalDirection {
	for _, m := range matched {
		for _, kw := range earliestKeywords {
			if m == kw {
				return DirectionEarliest
			}
		}
	}
	for _, m := range matched {
		for _, kw := range latestKeywords {
			if m == kw {
				return DirectionLatest
			}
		}
	}
	return DirectionNone
}

// hasEmotionalOvertone reports whether emotional keywords co-occur in the
// query regardless of which group won. Conversational queries with an
// emotional overtone upgrade to multi-vector fusion.
func hasEmotionalOvertone(query string) bool {
	for _, group := range patternGroups() {
		if group.intent != IntentEmotionalState {
			continue
		}
		return len(matchKeywords(query, group.keywords)) > 0
	}
	return false
}

// extractEntity pulls a (type, relation) hint out of the query when one of
// the known relation keywords appears.
func extractEntity(query string) *ExtractedEntity {
	for _, hint := range relationHints {
		if ContainsWord(query, hint.keyword) {
			entity := hint.entity
			return &entity
		}
	}
	return nil
}

// normalize lowercases and collapses whitespace.
func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
