package assemble

// FragmentType labels where a context fragment came from.
type FragmentType string

const (
	FragmentPersona   FragmentType = "persona"
	FragmentFacts     FragmentType = "facts"
	FragmentRecent    FragmentType = "recent_turns"
	FragmentRetrieval FragmentType = "retrieval"
	FragmentEpisodic  FragmentType = "episodic"
	FragmentSystem    FragmentType = "system"
)

// Fragment is one labeled, prioritized, sizeable piece of context. Fragments
// are created fresh per assembly call by upstream collaborators and
// discarded afterward; nothing here is persisted.
type Fragment struct {
	// Type labels the fragment for logging and debugging.
	Type FragmentType `json:"type"`

	// Priority orders inclusion: lower number = higher priority.
	Priority int `json:"priority"`

	// Required fragments always appear in the output, truncated if
	// necessary, never dropped. Optional fragments are all-or-nothing.
	Required bool `json:"required"`

	// TokenBudget is the fragment's requested allocation. Zero means
	// "whatever the content costs".
	TokenBudget int `json:"token_budget"`

	// Content is the fragment text.
	Content string `json:"content"`
}

// requestedTokens returns the fragment's budget, falling back to the
// estimated cost of its content.
func (f *Fragment) requestedTokens() int {
	cost := EstimateTokens(f.Content)
	if f.TokenBudget > 0 && f.TokenBudget < cost {
		return f.TokenBudget
	}
	return cost
}
