// ABOUTME: Pure predicate deciding when an agent reply asks for identity documents
// ABOUTME: Substring matching by policy - the backend signals in free text, not a flag

package chat

import "strings"

// documentTriggers is the fixed vocabulary scanned for in agent replies.
// Matching is substring and case-insensitive on purpose: a false positive
// merely re-opens an idempotent gate, while a false negative would block
// the booking, so the vocabulary favors recall.
var documentTriggers = []string{
	"verify your identity",
	"upload",
	"cnic",
	"selfie",
	"documents",
}

// NeedsDocuments reports whether an agent reply is asking the user to
// provide identity documents.
func NeedsDocuments(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range documentTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
