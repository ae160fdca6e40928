package answers

import (
	"strings"
	"unicode"

	"github.com/aislice/aislice-backend/pkg/db/models"
)

// containmentBonus rewards an entry whose question wholly contains the
// asked one (or the reverse) on top of the token overlap score.
const containmentBonus = 0.25

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "do": {}, "does": {},
	"i": {}, "you": {}, "my": {}, "your": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "for": {}, "and": {}, "or": {}, "what": {}, "how": {},
	"can": {}, "it": {},
}

// tokenize lowercases, strips punctuation, and drops stopwords.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if _, skip := stopwords[word]; skip {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// matchScore measures how well an entry answers the asked question:
// shared tokens over the union, plus a bonus when one normalized question
// contains the other.
func matchScore(question string, entry models.KnowledgeEntry) float64 {
	qTokens := tokenize(question)
	eTokens := tokenize(entry.Question)
	if len(qTokens) == 0 || len(eTokens) == 0 {
		return 0
	}

	qSet := make(map[string]struct{}, len(qTokens))
	for _, token := range qTokens {
		qSet[token] = struct{}{}
	}
	eSet := make(map[string]struct{}, len(eTokens))
	for _, token := range eTokens {
		eSet[token] = struct{}{}
	}

	var overlap int
	for token := range qSet {
		if _, ok := eSet[token]; ok {
			overlap++
		}
	}
	union := len(qSet) + len(eSet) - overlap
	if union == 0 {
		return 0
	}
	score := float64(overlap) / float64(union)

	qNorm := strings.Join(qTokens, " ")
	eNorm := strings.Join(eTokens, " ")
	if strings.Contains(eNorm, qNorm) || strings.Contains(qNorm, eNorm) {
		score += containmentBonus
	}
	return score
}

// bestMatch returns the highest scoring entry at or above the threshold.
func bestMatch(question string, entries []models.KnowledgeEntry, threshold float64) (*models.KnowledgeEntry, bool) {
	var best *models.KnowledgeEntry
	var bestScore float64
	for i := range entries {
		score := matchScore(question, entries[i])
		if score > bestScore {
			best = &entries[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < threshold {
		return nil, false
	}
	return best, true
}
