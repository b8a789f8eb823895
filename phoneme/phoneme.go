// Package phoneme rewrites drawn-out vowel runs into inline pronunciation
// markup for voices that otherwise read them letter by letter.
//
// Rewrite is a pure function. It performs two passes:
//   - a normalization pass that respells short "-ing" words phonetically
//   - a markup pass that replaces one vowel run with an X-SAMPA phoneme tag
//
// The markup pass only runs when the text contains a run of five "a"
// characters, and it only rewrites the first vowel run it finds.
package phoneme

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// trigger gates the markup pass.
	trigger = "aaaaa"

	// placeholder is the word the markup is wrapped around.
	placeholder = "ah"

	// Pause is the marker inserted after sentence punctuation.
	Pause = `<break time="250ms"/>`

	fillerToken = ":"
	finalToken  = "_"
	schwaToken  = "@"

	ingTail = "ng"
)

var (
	ingPattern = regexp.MustCompile(`(?i)\b([bdfgklmnprstwz])ing\b`)
	runPattern = regexp.MustCompile(`(?i)\b(?:sh)?[aeiou]+[bcdfghjklmnpqrstvwxz]?\b`)
)

// ingSyllables respells the leading consonant of an "-ing" word.
var ingSyllables = map[byte]string{
	'b': "bee",
	'd': "dee",
	'f': "fee",
	'g': "ghee",
	'k': "kee",
	'l': "lee",
	'm': "mee",
	'n': "nee",
	'p': "pee",
	'r': "ree",
	's': "see",
	't': "tee",
	'w': "wee",
	'z': "zee",
}

// seeds maps the first character of a vowel run to its opening tokens.
// Lookups are case-sensitive.
var seeds = map[byte][]string{
	'a': {"a"},
	'A': {"A"},
	'e': {"e"},
	'E': {"E"},
	'i': {"i"},
	'I': {"aI"},
	'o': {"o"},
	'O': {"O"},
	'u': {"u"},
	'U': {"V"},
}

var defaultSeed = []string{"@"}

// tails holds the closing tokens per voice profile.
var tails = map[string][]string{
	"ryan":               {"h"},
	"rachel":             {"@", "h"},
	"heather":            {"@", "h"},
	"laura":              {"h", "@"},
	"will":               {"h"},
	"willhappy":          {"h", "h"},
	"willsad":            {"@", "@", "h"},
	"willbadguy":         {"r", "h"},
	"willfromafar":       {"h", "@", "h"},
	"willupclose":        {"@", "h", "h"},
	"willlittlecreature": {"i", "h"},
	"willoldman":         {"@", "r"},
	"tracy":              {"@", "h"},
	"nelly":              {"i", "@"},
	"micah":              {"h"},
	"rod":                {"r", "h"},
	"karen":              {"@", "h"},
	"lucy":               {"h", "@"},
	"peter":              {"@", "r"},
	"queenelizabeth":     {"@", "@"},
	"kenny":              {"h", "i"},
	"graham":             {"@"},
}

var defaultTail = []string{"h"}

// profiles that drop two tokens instead of one for a lone "I".
var doubleTrim = map[string]bool{
	"rachel":  true,
	"heather": true,
	"laura":   true,
	"tracy":   true,
	"karen":   true,
}

// profiles that drop one more token for a lone "I".
var extraTrim = map[string]bool{
	"willfromafar": true,
	"willupclose":  true,
}

// ProfileFromArg derives a voice profile from a provider voice argument
// such as "WillHappy22k_NT". The result is lowercased and cut at the first
// digit or underscore.
func ProfileFromArg(arg string) string {
	cut := strings.IndexFunc(arg, func(r rune) bool {
		return unicode.IsDigit(r) || r == '_'
	})
	if cut >= 0 {
		arg = arg[:cut]
	}
	return strings.ToLower(arg)
}

// Rewrite applies the normalization pass and, when triggered, replaces the
// first vowel run with phoneme markup tuned for profile.
//
// Only the first match is rewritten. Later runs in the same text are left
// as they are.
func Rewrite(text, profile string) string {
	text = normalize(text)
	if !strings.Contains(strings.ToLower(text), trigger) {
		return text
	}

	loc := runPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	match := text[loc[0]:loc[1]]
	markup := `<phoneme alphabet="x-sampa" ph="` + strings.Join(Tokens(match, profile), "") + `">` + placeholder + `</phoneme>`
	return touchUp(text[:loc[0]] + markup + text[loc[1]:])
}

// Tokens returns the phoneme token sequence for a single vowel run.
func Tokens(match, profile string) []string {
	seq := seed(match)

	rest := match
	if len(rest) >= 2 && strings.EqualFold(rest[:2], "sh") {
		rest = rest[2:]
	}
	vowels := 0
	for vowels < len(rest) && isVowel(rest[vowels]) {
		vowels++
	}
	for i := 2; i < vowels; i++ {
		seq = append(seq, fillerToken)
	}

	switch {
	case contains(seq, "S"):
		seq = append(seq, schwaToken)
	case contains(seq, "aU"):
	default:
		if vowels < len(rest) {
			seq = append(seq, strings.ToLower(rest[vowels:]))
		}
	}

	tail, ok := tails[profile]
	if !ok {
		tail = defaultTail
	}
	seq = append(seq, tail...)

	if match == "I" {
		trim := 1
		if doubleTrim[profile] {
			trim = 2
		}
		if extraTrim[profile] {
			trim++
		}
		seq = seq[:max(len(seq)-trim, 0)]
	}
	return append(seq, finalToken)
}

func seed(match string) []string {
	lower := strings.ToLower(match)
	switch {
	case strings.HasPrefix(lower, "sh"):
		return []string{"S", "A"}
	case strings.HasPrefix(lower, "ou"):
		return []string{"aU"}
	}
	if s, ok := seeds[match[0]]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), defaultSeed...)
}

func normalize(text string) string {
	return ingPattern.ReplaceAllStringFunc(text, func(word string) string {
		lead := word[0]
		syllable := ingSyllables[lead|0x20]
		if lead >= 'A' && lead <= 'Z' {
			syllable = strings.ToUpper(syllable[:1]) + syllable[1:]
		}
		return syllable + ingTail
	})
}

func touchUp(text string) string {
	text = strings.Replace(text, "!", "!"+Pause, 1)
	text = strings.ReplaceAll(text, "?", "?"+Pause)
	text = strings.Replace(text, ",", ","+Pause, 1)
	return strings.Replace(text, ".", "."+Pause, 1)
}

func isVowel(c byte) bool {
	switch c | 0x20 {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func contains(seq []string, token string) bool {
	for _, t := range seq {
		if t == token {
			return true
		}
	}
	return false
}
