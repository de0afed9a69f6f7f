// Package chat matches free-text questions to funds and answers them
package chat

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/bobmcallan/fundwatch/internal/models"
)

// DefaultMatchThreshold is the minimum match score (out of 100) before
// a query is considered to name a fund
const DefaultMatchThreshold = 75

// maxEditDistance bounds the fuzzy token comparison; more than two
// edits between short tokens is a different word, not a typo
const maxEditDistance = 2

// stopwords are query tokens that carry no fund-name signal
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "did": {}, "do": {},
	"does": {}, "for": {}, "fund": {}, "how": {}, "in": {}, "is": {},
	"it": {}, "last": {}, "me": {}, "month": {}, "of": {}, "offer": {},
	"over": {}, "perform": {}, "performance": {}, "performed": {},
	"performing": {}, "return": {}, "returns": {}, "scheme": {},
	"tell": {}, "the": {}, "this": {}, "was": {}, "what": {},
	"whats": {}, "year": {}, "years": {},
}

// matchResult pairs a fund with its query match score
type matchResult struct {
	fund  *models.FundMetadata
	score int
}

// MatchFund finds the fund whose name best matches the query tokens.
// The score is the share of name-bearing query tokens that appear in
// the fund name, scaled to 100. Returns nil when no fund clears the
// threshold.
func MatchFund(query string, funds []*models.FundMetadata, threshold int) *models.FundMetadata {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	queryTokens := relevantTokens(query)
	if len(queryTokens) == 0 {
		return nil
	}

	best := matchResult{}
	for _, fund := range funds {
		score := matchScore(queryTokens, tokenize(fund.SchemeName))
		if score > best.score {
			best = matchResult{fund: fund, score: score}
		}
	}

	if best.score < threshold {
		return nil
	}
	return best.fund
}

// matchScore counts query tokens that match any name token, exactly,
// by prefix, or within the edit-distance bound.
func matchScore(queryTokens, nameTokens []string) int {
	if len(queryTokens) == 0 {
		return 0
	}

	matched := 0
	for _, qt := range queryTokens {
		if tokenMatches(qt, nameTokens) {
			matched++
		}
	}

	return matched * 100 / len(queryTokens)
}

func tokenMatches(qt string, nameTokens []string) bool {
	for _, nt := range nameTokens {
		if qt == nt {
			return true
		}
		if len(qt) >= 4 && strings.HasPrefix(nt, qt) {
			return true
		}
		if rank := fuzzy.RankMatchNormalizedFold(qt, nt); rank >= 0 && rank <= maxEditDistance {
			return true
		}
	}
	return false
}

// relevantTokens tokenizes a query and drops stopwords
func relevantTokens(query string) []string {
	tokens := tokenize(query)
	relevant := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, skip := stopwords[t]; skip {
			continue
		}
		relevant = append(relevant, t)
	}
	return relevant
}

// tokenize lowercases and splits on anything that is not a letter or digit
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
