package usecase

import (
	"log"
	"sort"
	"strings"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// defaultMatchThreshold is the minimum token-sort similarity (0-100)
// for a candidate to be accepted as a catalog item.
const defaultMatchThreshold = 70.0

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Threshold          float64
	EnableDebugLogging bool
}

// MatchingService maps candidate item names from a receipt to entries
// in the reference food catalog using token-sort string similarity.
type MatchingService struct {
	threshold          float64
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = defaultMatchThreshold
	}

	return &MatchingService{
		threshold:          threshold,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// FindBestMatch scores the candidate against every catalog entry and
// returns the highest-scoring one. The match is accepted only when the
// best score meets the threshold; otherwise the score is still
// reported for observability. When several entries share the maximal
// score the first encountered wins. An empty catalog yields an
// unmatched result with score 0.
func (s *MatchingService) FindBestMatch(candidate string, entries []domain.CatalogEntry) domain.MatchResult {
	result := domain.MatchResult{Candidate: candidate}

	if len(entries) == 0 {
		return result
	}

	normalized := tokenSortNormalize(candidate)

	best := -1
	highestScore := -1.0
	for i, entry := range entries {
		score := indelRatio(normalized, tokenSortNormalize(entry.Name))
		if s.enableDebugLogging {
			log.Printf("[MATCH] Candidate %q vs %q: %.1f", candidate, entry.Name, score)
		}
		if score > highestScore {
			highestScore = score
			best = i
		}
	}

	result.Score = highestScore
	if highestScore >= s.threshold {
		result.Matched = true
		result.MatchedName = entries[best].Name
		result.ExpiryDate = entries[best].ExpiryDate
		if s.enableDebugLogging {
			log.Printf("[MATCH] Accepted %q -> %q (score %.1f)", candidate, result.MatchedName, highestScore)
		}
	} else if s.enableDebugLogging {
		log.Printf("[MATCH] No good match for %q (best %q, score %.1f)", candidate, entries[best].Name, highestScore)
	}

	return result
}

// Threshold returns the configured acceptance threshold.
func (s *MatchingService) Threshold() float64 {
	return s.threshold
}

// tokenSortNormalize lowercases a string, sorts its whitespace-delimited
// tokens and rejoins them, so word-order differences do not penalize
// the similarity score.
func tokenSortNormalize(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// indelRatio computes a normalized insert/delete similarity between two
// strings on a 0-100 scale: 2*LCS / (len1+len2) * 100. Two empty
// strings are considered identical.
func indelRatio(s1, s2 string) float64 {
	r1 := []rune(s1)
	r2 := []rune(s2)

	total := len(r1) + len(r2)
	if total == 0 {
		return 100
	}

	lcs := longestCommonSubsequence(r1, r2)
	return float64(2*lcs) / float64(total) * 100
}

// longestCommonSubsequence computes the LCS length using two rows
// instead of the full matrix for space efficiency.
func longestCommonSubsequence(r1, r2 []rune) int {
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	n := len(r2)
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for i := 1; i <= len(r1); i++ {
		for j := 1; j <= n; j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}

	return prev[n]
}
