// Package email derives display names from email addresses.
package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail guesses a (first, last) pair from the local part of an
// address: "hans.mueller@example.ch" becomes ("Hans", "Mueller"). When the
// local part yields nothing usable both names fall back to "User".
func DeriveNameFromEmail(addr string) (string, string) {
	local, _, found := strings.Cut(addr, "@")
	if !found || local == "" {
		local = addr
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		switch r {
		case '.', '_', '-', '+':
			return true
		}
		return false
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	first := titleCase(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = titleCase(parts[len(parts)-1])
	}
	return first, last
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
