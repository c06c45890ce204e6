package assemble

import "strings"

// elisionMarker replaces the middle span of a truncated fragment. It carries
// no content so downstream models cannot hallucinate from it.
const elisionMarker = "\n[...]\n"

// truncateMiddle shrinks content to roughly maxTokens by keeping the head and
// tail and eliding the middle. The head gets three quarters of the allowance
// and the tail one quarter: openings carry instructions and framing, endings
// carry the most recent material, and the middle is the safest to lose.
//
// Cuts snap outward to the nearest whitespace when one is close, so words are
// not split mid-rune. Content that already fits is returned unchanged.
func truncateMiddle(content string, maxTokens int) string {
	if EstimateTokens(content) <= maxTokens {
		return content
	}

	allowed := tokensToChars(maxTokens) - len(elisionMarker)
	if allowed <= 0 {
		return strings.TrimSpace(content[:tokensToChars(maxTokens)])
	}

	headLen := allowed * 3 / 4
	tailLen := allowed - headLen

	head := snapBack(content[:headLen])
	tail := snapForward(content[len(content)-tailLen:])
	return head + elisionMarker + tail
}

// snapBack trims a head cut back to the last whitespace, when the cut landed
// mid-word and a boundary is nearby.
func snapBack(s string) string {
	idx := strings.LastIndexAny(s, " \t\n")
	if idx > 0 && len(s)-idx < 24 {
		return strings.TrimRight(s[:idx], " \t\n")
	}
	return s
}

// snapForward trims a tail cut forward to the first whitespace.
func snapForward(s string) string {
	idx := strings.IndexAny(s, " \t\n")
	if idx >= 0 && idx < 24 {
		return strings.TrimLeft(s[idx:], " \t\n")
	}
	return s
}
