package catalog

import (
	"math"
	"regexp"
	"strconv"

	"cinefile/internal/catalog/tmdb"
	"cinefile/internal/textutil"
)

const (
	exactTitleBonus = 10
	yearMatchBonus  = 5
	variantPenalty  = 4
	maxVoteBonus    = 3
)

// variantPattern flags sessions, featurettes and concert cuts that share a
// title with the main feature.
var variantPattern = regexp.MustCompile(`(?i)\b(session|extended|making of|behind the|in the edges|concert|live)\b`)

// ScoreCandidate rates one search result against the requested title and
// year. Higher is better.
func ScoreCandidate(query string, year int, candidate tmdb.Result) int {
	return scoreNormalized(textutil.NormalizeTitle(query), year, candidate)
}

func scoreNormalized(want string, year int, candidate tmdb.Result) int {
	score := 0
	if textutil.NormalizeTitle(candidate.Title) == want {
		score += exactTitleBonus
	}
	if year > 0 {
		if y := releaseYear(candidate.ReleaseDate); y != nil && *y == year {
			score += yearMatchBonus
		}
	}
	if variantPattern.MatchString(candidate.Title) {
		score -= variantPenalty
	}
	votes := max(candidate.VoteCount, 0)
	score += min(maxVoteBonus, int(math.Floor(math.Log10(float64(votes)+1))))
	return score
}

// BestCandidate picks the highest scoring result. Ties keep the earlier
// result, and when nothing scores above -1 the first result wins. ok is
// false only for an empty result set.
func BestCandidate(query string, year int, results []tmdb.Result) (best tmdb.Result, ok bool) {
	if len(results) == 0 {
		return tmdb.Result{}, false
	}
	want := textutil.NormalizeTitle(query)
	bestIdx, bestScore := -1, -1
	for i, candidate := range results {
		if score := scoreNormalized(want, year, candidate); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 {
		bestIdx = 0
	}
	return results[bestIdx], true
}

// releaseYear parses the leading four digits of a TMDB release date.
func releaseYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}
