// Package natsort orders strings so that embedded numbers compare by value,
// e.g. "img2" < "img10" < "img10a".
package natsort

import (
	"strings"

	"golang.org/x/text/cases"
)

// Token is one run of a Key. Numeric runs keep their digits with leading
// zeros stripped in Digits; text runs are case folded.
type Token struct {
	Numeric bool
	Text    string
	Digits  string
	width   int
}

// Key is the comparable form of a string. It is derived, never stored.
type Key []Token

// New splits s into maximal digit and non-digit runs, left to right.
func New(s string) Key {
	fold := cases.Fold()
	var key Key
	start := 0
	for start < len(s) {
		end := start
		digit := isDigit(s[start])
		for end < len(s) && isDigit(s[end]) == digit {
			end++
		}
		run := s[start:end]
		if digit {
			trimmed := strings.TrimLeft(run, "0")
			key = append(key, Token{Numeric: true, Digits: trimmed, width: len(run)})
		} else {
			key = append(key, Token{Text: fold.String(run)})
		}
		start = end
	}
	return key
}

// Compare returns -1, 0 or +1. At the same position a text token sorts
// before a numeric token; a key that is a prefix of another sorts first.
func Compare(a, b Key) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareToken(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Less reports whether a sorts before b in natural order.
func Less(a, b string) bool {
	return Compare(New(a), New(b)) < 0
}

func compareToken(a, b Token) int {
	if a.Numeric != b.Numeric {
		if a.Numeric {
			return 1
		}
		return -1
	}
	if !a.Numeric {
		return strings.Compare(a.Text, b.Text)
	}
	// same value compares by magnitude first, then by digits
	if len(a.Digits) != len(b.Digits) {
		if len(a.Digits) < len(b.Digits) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Digits, b.Digits); c != 0 {
		return c
	}
	// "1" before "01"
	switch {
	case a.width < b.width:
		return -1
	case a.width > b.width:
		return 1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
