package amend

import (
	"regexp"
	"strings"

	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/structure"
)

// Apply reconstructs current text from original text and amendments taken
// in extraction order. Each applicable amendment replaces the first span
// that starts at its paragraph marker and runs to the next marker line or
// the end of text. Amendments without a marker or replacement text, and
// those whose marker is not found, leave the text untouched and are
// reported in the returned outcomes. The amendments are only read.
func Apply(original string, amendments []model.Amendment) (string, []model.Outcome) {
	if len(amendments) == 0 {
		return original, nil
	}
	text := original
	outcomes := make([]model.Outcome, 0, len(amendments))
	for i, a := range amendments {
		o := model.Outcome{Index: i}
		key := markerKey(a.AffectedParagraph)
		if !a.Applicable() || key == "" {
			o.Kind = model.OutcomeSkippedIncomplete
			outcomes = append(outcomes, o)
			continue
		}
		o.Marker = CanonicalMarker(key)

		start, end, ok := findSpan(text, key)
		if !ok {
			o.Kind = model.OutcomeSkippedNotFound
			outcomes = append(outcomes, o)
			continue
		}
		text = text[:start] + replacement(o.Marker, a.NewText) + text[end:]
		o.Kind = model.OutcomeApplied
		outcomes = append(outcomes, o)
	}
	return text, outcomes
}

// markerKey strips brackets, tatweel and trailing separators from a
// paragraph key.
func markerKey(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "()")
	p = strings.ReplaceAll(p, "\u0640", "")
	return strings.TrimRight(p, " -–—:.")
}

// CanonicalMarker returns the display marker for a paragraph key: "X:" for
// ordinal clause words and "X-" otherwise.
func CanonicalMarker(key string) string {
	if m, ok := structure.MatchOrdinal(key + ": x"); ok {
		return m.Marker
	}
	return structure.NormalizeMarker(key)
}

func replacement(marker, newText string) string {
	if m, ok := structure.MatchLine(newText); ok && m.Marker == marker {
		return newText
	}
	return marker + " " + newText
}

// keyPattern matches a key at a line start or after whitespace, optionally
// bracketed, followed by a separator. Digit keys also match their
// Arabic-indic spelling.
func keyPattern(key string) *regexp.Regexp {
	alt := regexp.QuoteMeta(key)
	if indic := toIndic(key); indic != key {
		alt = "(?:" + alt + "|" + regexp.QuoteMeta(indic) + ")"
	}
	return regexp.MustCompile(`(?m)(?:^|[ \t])(\(?` + alt + `\x{0640}?\)?[ \t]*[-–—.:])`)
}

func toIndic(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return '٠' + (r - '0')
		}
		return r
	}, s)
}

// findSpan locates the paragraph that starts with key. The span ends before
// the next inline lettered sub-item on the same line, or before the next
// line that opens with any marker.
func findSpan(text, key string) (start, end int, ok bool) {
	loc := keyPattern(key).FindStringSubmatchIndex(text)
	if loc == nil {
		return 0, 0, false
	}
	start, after := loc[2], loc[3]

	line := text[after:]
	nl := strings.IndexByte(line, '\n')
	if nl >= 0 {
		line = line[:nl]
	}
	if i := structure.NextInlineLetter(line); i >= 0 {
		return start, after + len(strings.TrimRight(line[:i], " \t")), true
	}
	if nl < 0 {
		return start, len(text), true
	}

	pos := after + nl + 1
	for pos < len(text) {
		rest := text[pos:]
		next := strings.IndexByte(rest, '\n')
		cur := rest
		if next >= 0 {
			cur = rest[:next]
		}
		if _, marked := structure.MatchLine(cur); marked {
			return start, pos - 1, true
		}
		if next < 0 {
			break
		}
		pos += next + 1
	}
	return start, len(text), true
}
