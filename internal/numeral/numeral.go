// Package numeral resolves Arabic ordinal words and digit runs to integers.
package numeral

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

type ordinal struct {
	word  string
	value int
}

// table holds every known ordinal form, longest first.
var table = buildTable()

var (
	units = []ordinal{
		{"الحادية", 1}, {"الثانية", 2}, {"الثالثة", 3}, {"الرابعة", 4},
		{"الخامسة", 5}, {"السادسة", 6}, {"السابعة", 7}, {"الثامنة", 8},
		{"التاسعة", 9},
	}
	tens = []ordinal{
		{"العاشرة", 10}, {"العشرون", 20}, {"الثلاثون", 30}, {"الأربعون", 40},
		{"الخمسون", 50}, {"الستون", 60}, {"السبعون", 70}, {"الثمانون", 80},
		{"التسعون", 90},
	}
	hundred = ordinal{"المائة", 100}
)

func buildTable() []ordinal {
	var below100 []ordinal
	for _, u := range units {
		below100 = append(below100, ordinal{u.word + " عشرة", u.value + 10})
		for _, t := range tens[1:] {
			below100 = append(below100, ordinal{u.word + " و" + t.word, u.value + t.value})
		}
	}
	below100 = append(below100, tens...)
	below100 = append(below100, ordinal{"الأولى", 1})
	below100 = append(below100, units[1:]...)

	out := make([]ordinal, 0, 2*len(below100)+len(units)+1)
	out = append(out, below100...)
	// Articles past one hundred are written "X بعد المائة".
	for _, o := range below100 {
		out = append(out, ordinal{o.word + " بعد المائة", o.value + 100})
	}
	for _, u := range units {
		out = append(out, ordinal{u.word + " و" + hundred.word, u.value + 100})
	}
	out = append(out, hundred)

	sort.SliceStable(out, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(out[i].word), utf8.RuneCountInString(out[j].word)
		if li != lj {
			return li > lj
		}
		return out[i].word < out[j].word
	})
	return out
}

var digitRun = regexp.MustCompile(`[0-9\x{0660}-\x{0669}\x{06F0}-\x{06F9}]+`)

// Resolve maps s to a non-negative integer. Ordinal words win over digits;
// the ordinal table is scanned longest-first so a compound such as
// "الحادية عشرة" is never read as its "الحادية" prefix.
func Resolve(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, o := range table {
		if strings.Contains(s, o.word) {
			return o.value, true
		}
	}
	m := digitRun.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(ToASCII(m))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ToASCII translates Arabic-indic and extended Arabic-indic digits to ASCII
// and leaves every other rune alone.
func ToASCII(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, s)
}
