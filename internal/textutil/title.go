package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	leadingArticlePattern = regexp.MustCompile(`^(the|a|an)\s+`)
	nonAlnumPattern       = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeTitle lowercases a title, drops one leading "the", "a" or "an"
// article, collapses non-alphanumeric runs to single spaces and trims.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	lowered = leadingArticlePattern.ReplaceAllString(lowered, "")
	return strings.TrimSpace(nonAlnumPattern.ReplaceAllString(lowered, " "))
}

// Slugify converts a display name into a lowercase-hyphenated id.
func Slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	return strings.Trim(nonAlnumPattern.ReplaceAllString(lowered, "-"), "-")
}

// NormalizeHeader maps a column header to a lower_snake key so "Tmdb ID",
// "tmdb-id" and "TMDB_ID" all compare equal.
func NormalizeHeader(header string) string {
	lowered := strings.ToLower(strings.TrimSpace(header))
	return strings.Trim(nonAlnumPattern.ReplaceAllString(lowered, "_"), "_")
}

// NameFromFileName derives a human list name from an import file path,
// e.g. "tspdt_greatest-films.csv" becomes "Tspdt Greatest Films".
func NameFromFileName(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var cleaned strings.Builder
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return ""
	}
	return cases.Title(language.Und).String(title)
}
