package assemble

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// Budgeted Prompt Assembler
// =============================================================================
//
// Deterministic composition of labeled context fragments into a single prompt
// under a hard token ceiling. Required fragments always appear, truncated
// when the ceiling demands it; optional fragments are included whole in
// priority order or not at all. The output never exceeds the ceiling.

const (
	// DefaultMaxTokens is the assembly ceiling when none is configured.
	DefaultMaxTokens = 2048

	// DefaultMinFragmentTokens is the smallest allocation a required
	// fragment is squeezed to under overflow.
	DefaultMinFragmentTokens = 50
)

// separator joins emitted fragments.
const separator = "\n\n"

// Config tunes the assembler. Zero values select defaults.
type Config struct {
	// MaxTokens is the hard ceiling on assembled output.
	MaxTokens int

	// MinFragmentTokens is the floor a required fragment is reduced to
	// when the required set overflows the ceiling.
	MinFragmentTokens int

	// Logger receives one record per assembly call.
	Logger *slog.Logger
}

// Assembler composes context fragments into prompts. It is stateless across
// calls and safe for concurrent use.
type Assembler struct {
	maxTokens int
	minTokens int
	logger    *slog.Logger
}

// Result reports one assembly.
type Result struct {
	// Prompt is the composed output.
	Prompt string

	// TotalTokens is the estimated cost of Prompt.
	TotalTokens int

	// Truncated reports whether any required fragment was cut.
	Truncated bool

	// Dropped lists the optional fragments that did not fit, in priority
	// order.
	Dropped []FragmentType
}

// New creates an Assembler.
func New(cfg Config) *Assembler {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	minTokens := cfg.MinFragmentTokens
	if minTokens <= 0 {
		minTokens = DefaultMinFragmentTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{maxTokens: maxTokens, minTokens: minTokens, logger: logger}
}

// Assemble composes fragments into a single prompt. Fragments are ordered by
// ascending priority number; ties keep input order. Empty fragments are
// skipped. The same input always produces the same output.
func (a *Assembler) Assemble(fragments []Fragment) Result {
	ordered := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f.Content) == "" {
			continue
		}
		ordered = append(ordered, f)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var required, optional []Fragment
	for _, f := range ordered {
		if f.Required {
			required = append(required, f)
		} else {
			optional = append(optional, f)
		}
	}

	parts, placed, usedTokens, truncated := a.placeRequired(required)
	requiredTokens := sumSizes(placed)
	parts, placed, usedTokens, dropped := a.placeOptional(parts, placed, usedTokens, optional)
	optionalTokens := sumSizes(placed) - requiredTokens

	prompt := strings.Join(parts, separator)
	// Ceilings smaller than the per-fragment floors plus separators can slip
	// past shrinkToFit; clamp the joined output so the ceiling always holds.
	if EstimateTokens(prompt) > a.maxTokens {
		cut := tokensToChars(a.maxTokens)
		for cut > 0 && !utf8.RuneStart(prompt[cut]) {
			cut--
		}
		prompt = strings.TrimRight(prompt[:cut], " \t\n")
		truncated = true
	}

	result := Result{
		Prompt:      prompt,
		TotalTokens: EstimateTokens(prompt),
		Truncated:   truncated,
		Dropped:     dropped,
	}

	a.logger.Debug("context assembled",
		"fragments", len(ordered),
		"required", len(required),
		"optional", len(optional),
		"required_tokens", requiredTokens,
		"optional_tokens", optionalTokens,
		"fragment_sizes", formatSizes(placed),
		"dropped", len(dropped),
		"tokens", result.TotalTokens,
		"max_tokens", a.maxTokens,
		"truncated", truncated,
		"token_estimate", usedTokens)

	return result
}

// fragmentSize records one emitted fragment's final cost for the per-call
// budget record.
type fragmentSize struct {
	Type   FragmentType
	Tokens int
}

func sumSizes(placed []fragmentSize) int {
	total := 0
	for _, p := range placed {
		total += p.Tokens
	}
	return total
}

func formatSizes(placed []fragmentSize) []string {
	out := make([]string, len(placed))
	for i, p := range placed {
		out[i] = fmt.Sprintf("%s=%d", p.Type, p.Tokens)
	}
	return out
}

// placeRequired emits every required fragment, shrinking allocations when
// their combined cost overflows the ceiling.
func (a *Assembler) placeRequired(required []Fragment) (parts []string, placed []fragmentSize, usedTokens int, truncated bool) {
	if len(required) == 0 {
		return nil, nil, 0, false
	}

	requested := make([]int, len(required))
	total := 0
	for i := range required {
		requested[i] = required[i].requestedTokens()
		total += requested[i]
	}

	separatorCost := EstimateTokens(separator) * (len(required) - 1)
	budget := a.maxTokens - separatorCost

	allowances := requested
	if total > budget {
		allowances = a.shrinkToFit(requested, budget)
	}

	for i, f := range required {
		content := truncateMiddle(f.Content, allowances[i])
		if EstimateTokens(f.Content) > allowances[i] {
			truncated = true
			a.logger.Debug("required fragment truncated",
				"type", f.Type,
				"requested", requested[i],
				"allowed", allowances[i])
		}
		cost := EstimateTokens(content)
		parts = append(parts, content)
		placed = append(placed, fragmentSize{Type: f.Type, Tokens: cost})
		usedTokens += cost
	}
	usedTokens += separatorCost
	return parts, placed, usedTokens, truncated
}

// shrinkToFit distributes budget across the requested allocations. Fragments
// are squeezed proportionally but never below the configured floor; when even
// the floors overflow the budget, every fragment gets an equal share so the
// ceiling still holds.
func (a *Assembler) shrinkToFit(requested []int, budget int) []int {
	n := len(requested)
	floor := a.minTokens
	if floor*n > budget {
		floor = budget / n
		if floor < 1 {
			floor = 1
		}
	}

	total := 0
	for _, r := range requested {
		total += r
	}

	allowances := make([]int, n)
	remaining := budget
	for i, r := range requested {
		share := budget * r / total
		if share < floor {
			share = floor
		}
		allowances[i] = share
		remaining -= share
	}

	// Proportional shares plus floors can still overshoot; claw back from
	// the largest allocations until the budget holds.
	for remaining < 0 {
		largest := 0
		for i := 1; i < n; i++ {
			if allowances[i] > allowances[largest] {
				largest = i
			}
		}
		if allowances[largest] <= floor {
			break
		}
		cut := -remaining
		if max := allowances[largest] - floor; cut > max {
			cut = max
		}
		allowances[largest] -= cut
		remaining += cut
	}
	return allowances
}

// placeOptional appends optional fragments whole, in priority order, while
// they fit. A fragment that does not fit is dropped entirely; later, smaller
// fragments may still fit.
func (a *Assembler) placeOptional(parts []string, placed []fragmentSize, usedTokens int, optional []Fragment) ([]string, []fragmentSize, int, []FragmentType) {
	var dropped []FragmentType
	sepCost := EstimateTokens(separator)

	for _, f := range optional {
		cost := EstimateTokens(f.Content)
		joinCost := 0
		if len(parts) > 0 {
			joinCost = sepCost
		}
		if usedTokens+joinCost+cost > a.maxTokens {
			dropped = append(dropped, f.Type)
			continue
		}
		parts = append(parts, f.Content)
		placed = append(placed, fragmentSize{Type: f.Type, Tokens: cost})
		usedTokens += joinCost + cost
	}
	return parts, placed, usedTokens, dropped
}
