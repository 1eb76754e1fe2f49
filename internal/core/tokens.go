package core

// ApproxTokens approximates the number of LLM tokens in s. It deliberately
// does not try to match any real tokenizer: every capacity threshold in
// the working-set and trigger-policy packages is calibrated against this
// exact formula, so changing it changes consolidation behavior.
func ApproxTokens(s string) uint64 {
	return uint64(len([]rune(s))) / 4
}
