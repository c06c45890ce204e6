package assemble

// charsPerToken is the character-to-token approximation used throughout
// assembly. Real tokenizer counts vary by model; a conservative 4:1 ratio
// slightly overestimates cost for English prose, which errs toward staying
// under the ceiling.
const charsPerToken = 4

// EstimateTokens approximates the token cost of text.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// tokensToChars converts a token allowance back to a character allowance.
func tokensToChars(tokens int) int {
	return tokens * charsPerToken
}
