package replkit

import "strings"

// exprSentinel switches a fragment into calculator mode: the remainder of
// the input is treated as a single expression.
const exprSentinel = '='

// Normalize converts one raw snippet into canonical fragment text. It trims
// surrounding whitespace, and rewrites a leading '=' so the remainder is
// wrapped in parentheses and terminated, making a bare expression an
// unambiguous expression statement. No other rewriting happens; syntactic
// validity is the compiler's concern.
func Normalize(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" || text[0] != exprSentinel {
		return text
	}

	expr := strings.TrimSpace(text[1:])
	// Drop any trailing statement terminators the user typed out of habit;
	// the rewrite supplies its own.
	expr = strings.TrimRight(expr, "; \t")
	return "(" + expr + ")\n"
}
