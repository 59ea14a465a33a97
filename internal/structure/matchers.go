// Package structure turns article bodies into ordered paragraph sequences.
package structure

import (
	"regexp"
	"strings"

	"github.com/sells-group/statute-cli/internal/model"
)

// Match is a marker recognized at the start of a line.
type Match struct {
	Marker string
	Text   string
	Level  int
}

// Matcher recognizes one marker family. Matchers are pure and are tried in
// order; the first match wins.
type Matcher func(line string) (Match, bool)

// DefaultMatchers is the marker precedence used for article bodies.
var DefaultMatchers = []Matcher{MatchOrdinal, MatchNumeral, MatchLetter}

var (
	ordinalRe = regexp.MustCompile(
		`^((?:أول|ثاني|ثالث|رابع|خامس|سادس|سابع|ثامن|تاسع|عاشر)(?:ا\x{064B}?|\x{064B}ا))\s*[:–—-]\s*(.+)$`)
	numeralRe = regexp.MustCompile(`^\(?([0-9]+|[\x{0660}-\x{0669}]+)\)?\s*[-–—.:]\s*(.+)$`)
	letterRe  = regexp.MustCompile(`^\(?(ج\x{0640}|[\x{0623}-\x{064A}])\)?\s*[-–—.:]\s*(.+)$`)

	// letterSplit finds lettered sub-items that start mid-line.
	letterSplit = regexp.MustCompile(`(?:^|\s)(\(?(?:ج\x{0640}|[\x{0623}-\x{064A}])\)?\s*[-–—.]\s*\S)`)

	trailingDash = regexp.MustCompile(`\s*[-–—−\x{0640}:]+\s*$`)
)

// MatchOrdinal recognizes "أولاً:" style clauses. The marker keeps the
// ordinal word and ends with a colon.
func MatchOrdinal(line string) (Match, bool) {
	m := ordinalRe.FindStringSubmatch(line)
	if m == nil {
		return Match{}, false
	}
	return Match{Marker: normalizeMarker(m[1], ":"), Text: strings.TrimSpace(m[2]), Level: model.LevelClause}, true
}

// MatchNumeral recognizes "1-", "(2)-" and Arabic-indic numbered items.
func MatchNumeral(line string) (Match, bool) {
	m := numeralRe.FindStringSubmatch(line)
	if m == nil {
		return Match{}, false
	}
	return Match{Marker: normalizeMarker(m[1], "-"), Text: strings.TrimSpace(m[2]), Level: model.LevelItem}, true
}

// MatchLetter recognizes "أ-", "(ب)-" and "جـ-" sub-items.
func MatchLetter(line string) (Match, bool) {
	m := letterRe.FindStringSubmatch(line)
	if m == nil {
		return Match{}, false
	}
	return Match{Marker: normalizeMarker(m[1], "-"), Text: strings.TrimSpace(m[2]), Level: model.LevelSubItem}, true
}

// normalizeMarker strips any trailing dash, tatweel or colon variants and
// appends the canonical suffix.
func normalizeMarker(raw, suffix string) string {
	raw = strings.TrimSpace(raw)
	raw = trailingDash.ReplaceAllString(raw, "")
	return raw + suffix
}

// NormalizeMarker returns the canonical "X-" form of a paragraph key such
// as "أ", "(ب)" or "3 -".
func NormalizeMarker(raw string) string {
	raw = strings.Trim(strings.TrimSpace(raw), "()")
	return normalizeMarker(raw, "-")
}

func firstMatch(matchers []Matcher, line string) (Match, bool) {
	for _, m := range matchers {
		if got, ok := m(line); ok {
			return got, true
		}
	}
	return Match{}, false
}

// splitLetters breaks a line before each lettered sub-item it contains.
func splitLetters(line string) []string {
	idx := letterSplit.FindAllStringSubmatchIndex(line, -1)
	if len(idx) == 0 {
		return []string{line}
	}
	var parts []string
	prev := 0
	for _, loc := range idx {
		start := loc[2]
		if start > prev {
			if p := strings.TrimSpace(line[prev:start]); p != "" {
				parts = append(parts, p)
			}
		}
		prev = start
	}
	if p := strings.TrimSpace(line[prev:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}

// MatchLine applies DefaultMatchers to a single line.
func MatchLine(line string) (Match, bool) {
	return firstMatch(DefaultMatchers, strings.TrimSpace(line))
}

// NextInlineLetter returns the byte offset of the first lettered sub-item
// that starts after whitespace in s, or -1.
func NextInlineLetter(s string) int {
	for _, loc := range letterSplit.FindAllStringSubmatchIndex(s, -1) {
		if loc[2] > 0 {
			return loc[2]
		}
	}
	return -1
}
