package classify

// =============================================================================
// Pattern Table
// =============================================================================
//
// Pattern groups are evaluated in strict priority order: the first group with
// any keyword match decides the intent. Ties inside a group break toward the
// longest matched substring. The table is static and versioned; changing it
// changes classification behavior, so additions belong at the end of a group.

// PatternTableVersion identifies the active pattern table. Logged alongside
// classifications so stored reasoning strings can be traced to the table that
// produced them.
const PatternTableVersion = "2026-05"

// patternGroup binds an intent to its trigger keywords.
type patternGroup struct {
	intent   Intent
	keywords []string
}

// patternGroups returns the groups in evaluation order. Temporal references
// outrank everything else: "what did we talk about yesterday" is a temporal
// query even though "talk about" also reads as conversational.
func patternGroups() []patternGroup {
	return []patternGroup{
		{
			intent: IntentTemporalAnalysis,
			keywords: []string{
				"first time",
				"first thing",
				"the first",
				"earliest",
				"originally",
				"initially",
				"in the beginning",
				"when did",
				"last time",
				"most recent",
				"most recently",
				"latest",
				"yesterday",
				"last week",
				"last month",
				"last night",
				"this morning",
				"days ago",
				"weeks ago",
				"months ago",
				"a while ago",
				"ago",
			},
		},
		{
			intent: IntentConversationalReference,
			keywords: []string{
				"we talked about",
				"we discussed",
				"you told me",
				"you said",
				"you mentioned",
				"i told you",
				"i mentioned",
				"as i said",
				"remember when",
				"that conversation",
				"our conversation",
				"we were talking",
				"brought up",
			},
		},
		{
			intent: IntentEmotionalState,
			keywords: []string{
				"how do i feel",
				"how was i feeling",
				"i was feeling",
				"i felt",
				"my mood",
				"feeling",
				"stressed",
				"anxious",
				"excited",
				"happy about",
				"sad about",
				"upset",
				"worried",
				"frustrated",
			},
		},
		{
			intent: IntentFactualRecall,
			keywords: []string{
				"what is my",
				"what's my",
				"where do i",
				"where did i",
				"what do i",
				"do you know my",
				"do you remember my",
				"remind me",
				"what did i say my",
				"my favorite",
				"my job",
				"my birthday",
			},
		},
		{
			intent: IntentRelationshipDiscovery,
			keywords: []string{
				"who is",
				"who's",
				"tell me about",
				"what do you know about",
				"how do i know",
				"my relationship with",
				"related to",
				"friends with",
				"connected to",
			},
		},
	}
}

// earliestKeywords mark a temporal query as targeting the start of history.
var earliestKeywords = []string{
	"first time", "first thing", "the first", "earliest",
	"originally", "initially", "in the beginning",
}

// latestKeywords mark a temporal query as targeting the most recent history.
var latestKeywords = []string{
	"last time", "most recent", "most recently", "latest", "last night",
}

// relationHints map query substrings to the relation a factual query is most
// likely asking about. Used to populate Classification.Entity.
var relationHints = []struct {
	keyword string
	entity  ExtractedEntity
}{
	{"work", ExtractedEntity{Type: "organization", Relation: "works_at"}},
	{"job", ExtractedEntity{Type: "organization", Relation: "works_at"}},
	{"live", ExtractedEntity{Type: "place", Relation: "lives_in"}},
	{"from", ExtractedEntity{Type: "place", Relation: "lives_in"}},
	{"favorite", ExtractedEntity{Type: "thing", Relation: "likes"}},
	{"like", ExtractedEntity{Type: "thing", Relation: "likes"}},
	{"love", ExtractedEntity{Type: "thing", Relation: "likes"}},
	{"hate", ExtractedEntity{Type: "thing", Relation: "dislikes"}},
	{"birthday", ExtractedEntity{Type: "date", Relation: "born_on"}},
	{"feel", ExtractedEntity{Type: "state", Relation: "feeling"}},
	{"friend", ExtractedEntity{Type: "person", Relation: "friends_with"}},
	{"dating", ExtractedEntity{Type: "person", Relation: "dating"}},
}

// intentExemplars are canonical phrasings per intent, scored by the fuzzy
// fallback when pattern matching is inconclusive.
var intentExemplars = map[Intent][]string{
	IntentTemporalAnalysis: {
		"what did we talk about yesterday",
		"when was the first time i mentioned this",
		"what happened last week",
	},
	IntentConversationalReference: {
		"remember when we discussed this",
		"you told me something about that",
		"what did you say about it before",
	},
	IntentEmotionalState: {
		"how was i feeling that day",
		"i was really stressed about work",
		"was i happy about the news",
	},
	IntentFactualRecall: {
		"what is my favorite food",
		"where do i work",
		"do you remember my birthday",
	},
	IntentRelationshipDiscovery: {
		"who is sarah",
		"tell me about my brother",
		"what do you know about alex",
	},
}
