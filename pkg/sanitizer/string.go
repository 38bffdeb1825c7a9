package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize collapses every whitespace run to one space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName also drops control and format runes (zero-width joiners, BOMs)
// that survive copy-paste from messengers.
func NormalizeName(name string) string {
	return TrimAndNormalize(strings.Map(dropInvisible, name))
}

// NormalizeNotes keeps line breaks but trims every line.
func NormalizeNotes(notes string) string {
	var lines []string
	for _, line := range strings.Split(notes, "\n") {
		if line = TrimAndNormalize(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// NormalizeSearch prepares free-text search input.
func NormalizeSearch(q string) string {
	return strings.ToLower(TrimAndNormalize(q))
}

func dropInvisible(r rune) rune {
	if unicode.IsSpace(r) {
		return r
	}
	if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
		return -1
	}
	return r
}
