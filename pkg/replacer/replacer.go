// Package replacer implements the case-preserving word replacement applied to
// every piece of visible text served by the proxy.
//
// A Replacer finds every case-insensitive occurrence of a source word in a
// string, in a single left-to-right pass and without any word-boundary
// requirement, and substitutes a replacement word of the same length whose
// casing is derived from the matched text.
package replacer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultFrom is the word replaced by the package-level Replace function.
	DefaultFrom = "Yale"
	// DefaultTo is the word substituted by the package-level Replace function.
	DefaultTo = "Fale"
)

// ErrInvalidWordPair is returned by New when the source and replacement words
// cannot be used together.
var ErrInvalidWordPair = errors.New("invalid word pair")

// CaseMode selects how the casing of a match is carried over to the replacement.
type CaseMode int

const (
	// CaseFirstLetter translates the case of the first letter only; the
	// remaining letters of the match are copied verbatim.
	CaseFirstLetter CaseMode = iota
	// CasePerLetter translates the case of every matched letter onto the
	// replacement letter at the same position.
	CasePerLetter
)

// String returns the configuration name of the mode.
func (m CaseMode) String() string {
	switch m {
	case CaseFirstLetter:
		return "first-letter"
	case CasePerLetter:
		return "per-letter"
	default:
		return fmt.Sprintf("CaseMode(%d)", int(m))
	}
}

// ParseCaseMode converts a configuration name into a CaseMode. An empty name
// selects CaseFirstLetter.
func ParseCaseMode(name string) (CaseMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first-letter":
		return CaseFirstLetter, nil
	case "per-letter":
		return CasePerLetter, nil
	default:
		return 0, fmt.Errorf("unknown case mode %q", name)
	}
}

// Replacer rewrites occurrences of one word into another. It holds no mutable
// state and is safe for concurrent use.
type Replacer struct {
	from    string
	to      []rune
	mode    CaseMode
	pattern *regexp.Regexp
}

// New builds a Replacer for the given word pair.
//
// Both words must be non-empty, consist of letters only and have the same
// number of runes. The replacement word must not itself match the source word
// case-insensitively, so running a Replacer over its own output is a no-op.
func New(from, to string, mode CaseMode) (*Replacer, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: words must not be empty", ErrInvalidWordPair)
	}
	if utf8.RuneCountInString(from) != utf8.RuneCountInString(to) {
		return nil, fmt.Errorf("%w: %q and %q differ in length", ErrInvalidWordPair, from, to)
	}
	for _, w := range []string{from, to} {
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return nil, fmt.Errorf("%w: %q contains a non-letter", ErrInvalidWordPair, w)
			}
		}
	}
	if mode != CaseFirstLetter && mode != CasePerLetter {
		return nil, fmt.Errorf("%w: unsupported case mode %s", ErrInvalidWordPair, mode)
	}

	pattern, err := regexp.Compile(letterClasses(from))
	if err != nil {
		return nil, fmt.Errorf("could not compile pattern for %q: %w", from, err)
	}
	if pattern.MatchString(to) {
		return nil, fmt.Errorf("%w: %q matches %q", ErrInvalidWordPair, to, from)
	}

	return &Replacer{
		from:    from,
		to:      []rune(to),
		mode:    mode,
		pattern: pattern,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(from, to string, mode CaseMode) *Replacer {
	r, err := New(from, to, mode)
	if err != nil {
		panic(err)
	}

	return r
}

// letterClasses builds a pattern matching word with exactly the upper and lower
// case form of each letter, e.g. "[Yy][Aa][Ll][Ee]". Unicode case folding is
// deliberately not used so that only these two forms match.
func letterClasses(word string) string {
	var b strings.Builder
	for _, r := range word {
		b.WriteByte('[')
		b.WriteString(regexp.QuoteMeta(string(unicode.ToUpper(r))))
		b.WriteString(regexp.QuoteMeta(string(unicode.ToLower(r))))
		b.WriteByte(']')
	}

	return b.String()
}

// From returns the source word.
func (r *Replacer) From() string { return r.from }

// To returns the replacement word.
func (r *Replacer) To() string { return string(r.to) }

// Mode returns the casing mode.
func (r *Replacer) Mode() CaseMode { return r.mode }

// Replace returns s with every occurrence of the source word replaced.
// The input is returned unchanged when it is empty or contains no match.
func (r *Replacer) Replace(s string) string {
	out, _ := r.ReplaceCount(s)

	return out
}

// ReplaceCount is like Replace and also reports the number of replaced
// occurrences.
func (r *Replacer) ReplaceCount(s string) (string, int) {
	if s == "" {
		return s, 0
	}

	n := 0
	out := r.pattern.ReplaceAllStringFunc(s, func(match string) string {
		n++

		return r.substitute(match)
	})

	return out, n
}

func (r *Replacer) substitute(match string) string {
	src := []rune(match)
	dst := make([]rune, len(src))
	for i, c := range src {
		switch {
		case i == 0 || r.mode == CasePerLetter:
			dst[i] = withCaseOf(c, r.to[i])
		default:
			dst[i] = c
		}
	}

	return string(dst)
}

func withCaseOf(src, dst rune) rune {
	if unicode.IsUpper(src) {
		return unicode.ToUpper(dst)
	}

	return unicode.ToLower(dst)
}

// Default replaces DefaultFrom with DefaultTo using CaseFirstLetter.
var Default = MustNew(DefaultFrom, DefaultTo, CaseFirstLetter) //nolint: gochecknoglobals

// Replace applies Default to s.
func Replace(s string) string {
	return Default.Replace(s)
}
