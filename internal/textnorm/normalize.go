// Package textnorm cleans raw statute text and renders markup fragments to
// plain multi-line text.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const tatweel = '\u0640'

// nuisance reports runes that carry no meaning in statute text: tatweel,
// zero-width marks, BOM and control characters other than line breaks.
func nuisance(r rune) bool {
	switch {
	case r == tatweel:
		return true
	case r >= '\u200b' && r <= '\u200f':
		return true
	case r == '\ufeff':
		return true
	case r == '\n' || r == '\t':
		return false
	}
	return unicode.IsControl(r)
}

// Clean strips nuisance runes, collapses whitespace runs on each line to a
// single space and drops blank lines. Empty input yields empty output.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	t := transform.Chain(runes.Remove(runes.Predicate(nuisance)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	var lines []string
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return strings.Join(lines, "\n")
}

// Lines returns the non-empty cleaned lines of s.
func Lines(s string) []string {
	c := Clean(s)
	if c == "" {
		return nil
	}
	return strings.Split(c, "\n")
}

// FromHTML renders an inner-markup fragment to cleaned text. Line breaks,
// paragraph, list-item and table-row ends become newlines; table cells are
// separated by spaces. When stripTables is set, tables are dropped entirely.
func FromHTML(fragment string, stripTables bool) string {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return Clean(fragment)
	}
	var sb strings.Builder
	for _, n := range nodes {
		render(&sb, n, stripTables)
	}
	return Clean(sb.String())
}

// FromNode renders the children of n the same way FromHTML renders a
// fragment.
func FromNode(n *html.Node, stripTables bool) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(&sb, c, stripTables)
	}
	return Clean(sb.String())
}

// inline elements never introduce a word boundary.
var inline = map[atom.Atom]bool{
	atom.A: true, atom.B: true, atom.Span: true, atom.Strong: true,
	atom.Em: true, atom.I: true, atom.U: true, atom.Font: true,
	atom.Sup: true, atom.Sub: true, atom.Small: true, atom.Big: true,
}

func render(sb *strings.Builder, n *html.Node, stripTables bool) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			render(sb, c, stripTables)
		}
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style:
		return
	case atom.Br:
		sb.WriteByte('\n')
		return
	case atom.Table:
		if stripTables {
			sb.WriteByte('\n')
			return
		}
	case atom.Td, atom.Th:
		sb.WriteString("  ")
	}

	sep := !inline[n.DataAtom]
	if sep {
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(sb, c, stripTables)
	}
	switch n.DataAtom {
	case atom.P, atom.Li, atom.Tr, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.Ol, atom.Ul, atom.Table:
		sb.WriteByte('\n')
	default:
		if sep {
			sb.WriteByte(' ')
		}
	}
}

// WordCount returns the number of whitespace separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
