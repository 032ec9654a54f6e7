package categorize

import (
	"regexp"
	"strings"
)

// MatchType controls how a merchant rule pattern is compared against the
// normalized merchant string.
type MatchType string

const (
	// MatchExact requires the normalized pattern to equal the normalized
	// merchant.
	MatchExact MatchType = "exact"
	// MatchPartial requires the normalized pattern to be a substring of
	// the normalized merchant.
	MatchPartial MatchType = "partial"
)

// MerchantRule is a user-authored categorization rule. Rules are applied
// in stored order; the first active match wins.
type MerchantRule struct {
	ID         int64
	Pattern    string
	MatchType  MatchType
	CategoryID int64
	IsActive   bool
}

// Category is the read-only projection the engine needs: enough to
// resolve a taxonomy topic to one of the user's categories by name.
type Category struct {
	ID   int64
	Name string
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]+`)
var spaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases a merchant string, collapses whitespace and
// strips everything outside [a-z0-9 ]. Matching is always done on
// normalized strings so that "McDonald's #1234" and "MCDONALDS" compare
// equal enough.
func Normalize(merchant string) string {
	s := strings.ToLower(strings.TrimSpace(merchant))
	s = spaceRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Categorize resolves a merchant to a category ID, or nil when nothing
// matches. User rules take precedence over the keyword taxonomy; within
// the rules, stored order decides. A nil result is a valid outcome, not
// an error: the transaction stays uncategorized for later review.
func (e *Engine) Categorize(merchant string, rules []MerchantRule, categories []Category) *int64 {
	normalized := Normalize(merchant)
	if normalized == "" {
		return nil
	}

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		pattern := Normalize(rule.Pattern)
		if pattern == "" {
			continue
		}
		matched := false
		switch rule.MatchType {
		case MatchExact:
			matched = normalized == pattern
		case MatchPartial:
			matched = strings.Contains(normalized, pattern)
		}
		if matched {
			id := rule.CategoryID
			return &id
		}
	}

	return e.taxonomyMatch(normalized, categories)
}

// taxonomyMatch walks the topic list in order; a topic whose keyword
// appears in the merchant resolves to the first user category whose
// normalized name contains the topic key.
func (e *Engine) taxonomyMatch(normalized string, categories []Category) *int64 {
	for _, topic := range e.topics {
		if !topic.matches(normalized) {
			continue
		}
		for _, cat := range categories {
			if strings.Contains(Normalize(cat.Name), topic.Key) {
				id := cat.ID
				return &id
			}
		}
	}
	return nil
}

func (t Topic) matches(normalized string) bool {
	for _, kw := range t.Keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
