package dialogstate

import "strings"

// ReservedToken occupies position 0 of every utterance. Span offsets (0, 0)
// point at it and mean "no span".
const ReservedToken = "[CLS]"

// NewUtterance splits text on whitespace and prepends ReservedToken, giving
// the token layout span offsets are expressed against.
func NewUtterance(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields)+1)
	tokens = append(tokens, ReservedToken)
	return append(tokens, fields...)
}

// JoinSpan concatenates tokens[start..end] inclusive with single spaces.
// Callers validate the offsets.
func JoinSpan(tokens []string, start, end int) string {
	return strings.Join(tokens[start:end+1], " ")
}
