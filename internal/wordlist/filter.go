// Package wordlist loads Cyrillic word lists.
package wordlist

import "unicode"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// Cyrillic keeps words made only of Russian letters. Case is ignored.
func Cyrillic(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		r = unicode.ToLower(r)
		if (r < 'а' || r > 'я') && r != 'ё' {
			return false
		}
	}
	return true
}
