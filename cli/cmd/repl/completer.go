package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/flk/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "consts", "get", "set", "new", "rm",
	"edit", "reload", "clear", "quit",
}

// isWordBoundary reports whether r delimits words for completion: whitespace,
// the reference sigil, the attribute dot, and FL operator or bracket
// characters.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '$', '.',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', ',', ':', '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte offsets in input. The
// word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// reference describes the reference chain, if any, ending just before a word.
type reference struct {
	ok     bool   // the word follows a '$' chain
	parent string // dotted path before the word, "" for $word
}

// referenceAt inspects the text before wordStart. For "x + $conf.db.ho" with
// the word "ho" it returns the parent path "conf.db".
func referenceAt(input string, wordStart int) reference {
	pos := wordStart

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:pos])
		if r == '$' {
			parent := strings.TrimSuffix(input[pos:wordStart], ".")

			return reference{ok: true, parent: parent}
		}

		if r != '.' && isWordBoundary(r) {
			return reference{}
		}

		pos -= size
	}

	return reference{}
}

// evalCandidates returns the completions for a word in eval mode. After '$'
// these are variable and constant names, or the keys of a dict reached by a
// dotted path. A bare word completes constant and type names.
func evalCandidates(p *lang.Parser, ref reference) []string {
	if !ref.ok {
		names := slices.Sorted(maps.Keys(p.Constants()))

		for t := range lang.Types() {
			names = append(names, t.String())
		}

		return names
	}

	if ref.parent == "" {
		return topLevelNames(p)
	}

	v := lookup(p, ref.parent)
	if v == nil || v.Type != lang.TypeDict {
		return nil
	}

	return slices.Clone(v.Keys)
}

// ctrlCandidates returns the completions for the argument at index pos of a
// control-mode command line.
func ctrlCandidates(p *lang.Parser, fields []string, pos int) []string {
	if pos == 0 {
		return ctrlCommands
	}

	switch fields[0] {
	case "get", "set", "rm":
		if pos == 1 {
			return variableNames(p)
		}

	case "new":
		if pos == 2 {
			var names []string

			for t := range lang.Types() {
				names = append(names, t.String())
			}

			return names
		}
	}

	return nil
}

func variableNames(p *lang.Parser) []string {
	var names []string

	for v := range p.Variables() {
		names = append(names, v.Name)
	}

	return names
}

func topLevelNames(p *lang.Parser) []string {
	names := variableNames(p)

	for _, name := range slices.Sorted(maps.Keys(p.Constants())) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names
}

// lookup resolves a dotted path without its sigil, or returns nil.
func lookup(p *lang.Parser, path string) *lang.Value {
	segs := strings.Split(path, ".")

	var v *lang.Value

	if vv, err := p.GetVar(segs[0]); err == nil {
		v = vv.Value
	} else if c, ok := p.Constant(segs[0]); ok {
		v = c
	} else {
		return nil
	}

	for _, seg := range segs[1:] {
		next, ok := v.Get(seg)
		if !ok {
			return nil
		}

		v = next
	}

	return v
}

// computeMatches calculates the fuzzy matches for the word at the cursor. An
// empty word yields no matches except directly after "$name.", where every
// key of the dict is offered.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, ws, we := wordBounds(input, cursor)
	wordStart, wordEnd = ws, we

	if m.mode == modeCtrl {
		before := strings.Fields(input[:wordStart])
		candidates = ctrlCandidates(m.parser, append(before, word), len(before))

		if word == "" {
			return nil, nil, wordStart, wordEnd
		}
	} else {
		ref := referenceAt(input, wordStart)
		candidates = evalCandidates(m.parser, ref)

		if word == "" {
			if ref.parent == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// declarationHint returns the declaration of the variable or constant named
// by a complete reference under the cursor, or "".
func declarationHint(p *lang.Parser, input string, cursor int) string {
	word, start, _ := wordBounds(input, cursor)
	if word == "" {
		return ""
	}

	ref := referenceAt(input, start)
	if !ref.ok {
		return ""
	}

	path := word
	if ref.parent != "" {
		path = ref.parent + "." + word
	}

	v := lookup(p, path)
	if v == nil {
		return ""
	}

	return ellipsize(path+"("+v.Type.String()+") = "+v.Literal(), maxPreview)
}

const maxPreview = 60

// ellipsize shortens s to at most n runes.
func ellipsize(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	r := []rune(s)

	return string(r[:n-3]) + "..."
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate uses the selected style when tabbing.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}
