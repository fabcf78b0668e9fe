package wordlist

import (
	"unicode"

	"github.com/verte-zerg/proxgrid/internal/keyboard"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForKeyboard keeps words whose every letter, lowercased, has a key on kb.
func FilterForKeyboard(kb *keyboard.Keyboard) FilterFunc {
	return func(word string) bool {
		if word == "" {
			return false
		}
		for _, r := range word {
			if kb.KeyByCode(int(unicode.ToLower(r))) == nil {
				return false
			}
		}
		return true
	}
}

// Filter returns the words keep accepts, in order.
func Filter(words []string, keep FilterFunc) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}
