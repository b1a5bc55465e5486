package fingerprint

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper decomposes to NFD, drops combining marks and recomposes,
// turning e.g. "Müller" into "Muller".
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func removeDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

// nameParticles are surname prefixes kept attached to the family name.
var nameParticles = map[string]bool{
	"van": true, "von": true, "de": true, "der": true, "den": true,
	"del": true, "della": true, "di": true, "da": true, "du": true,
	"la": true, "le": true, "ter": true, "ten": true,
}

// FormatAuthors reduces an author field to its canonical fingerprint form:
// names joined by " and ", each as "Surname, F. M." with first and middle
// names abbreviated to a single initial, nicknames discarded and diacritics
// stripped.
func FormatAuthors(input string) string {
	input = strings.ReplaceAll(input, "\n", " ")
	input = removeDiacritics(input)
	input = strings.ReplaceAll(input, "; ", " and ")

	var formatted []string
	for _, name := range strings.Split(input, " and ") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		formatted = append(formatted, formatName(name))
	}
	return strings.Join(formatted, " and ")
}

// formatName normalizes a single personal name to "Surname, F. M." form.
// Accepts both "Surname, Given" and "Given Surname" input.
func formatName(name string) string {
	name = stripNickname(name)

	var last string
	var given []string

	if i := strings.Index(name, ","); i >= 0 {
		last = strings.TrimSpace(name[:i])
		given = strings.Fields(name[i+1:])
	} else {
		tokens := strings.Fields(name)
		if len(tokens) == 0 {
			return ""
		}
		if len(tokens) == 1 {
			return tokens[0]
		}

		// Attach surname particles ("van", "de", ...) to the family name.
		lastStart := len(tokens) - 1
		for lastStart > 0 && nameParticles[strings.ToLower(tokens[lastStart-1])] {
			lastStart--
		}
		if lastStart == 0 {
			lastStart = len(tokens) - 1
		}
		last = strings.Join(tokens[lastStart:], " ")
		given = tokens[:lastStart]
	}

	if last == "" {
		return strings.Join(given, " ")
	}
	if len(given) == 0 {
		return last
	}

	initials := make([]string, 0, len(given))
	for _, g := range given {
		g = strings.Trim(g, ".")
		if g == "" {
			continue
		}
		r := []rune(g)
		initials = append(initials, string(r[0])+".")
	}
	if len(initials) == 0 {
		return last
	}
	return last + ", " + strings.Join(initials, " ")
}

// stripNickname removes quoted or parenthesized nicknames from a name, e.g.
// `William "Bill" Gates` or `Robert (Bob) Smith`.
func stripNickname(name string) string {
	for {
		start := strings.IndexAny(name, `"(`)
		if start < 0 {
			break
		}
		var end int
		if name[start] == '"' {
			end = strings.Index(name[start+1:], `"`)
		} else {
			end = strings.Index(name[start+1:], `)`)
		}
		if end < 0 {
			break
		}
		name = name[:start] + name[start+1+end+1:]
	}
	return strings.Join(strings.Fields(name), " ")
}
