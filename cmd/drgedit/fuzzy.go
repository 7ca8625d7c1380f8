package main

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/pkg/errors"
)

// smash smashes "funny characters" (which includes anything that's remotely
// tricky to type into a command line) in a string into the '_' character
func smash(in string) string {
	var b strings.Builder
	for _, c := range in {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func squash(s string) string {
	return smash(strings.ToUpper(s))
}

// string matching functions, in strictly increasing order of desperation
var fuzzy = []func(input string, candidate string) bool{
	func(i string, c string) bool { return i == c },
	func(i string, c string) bool { return strings.EqualFold(i, c) },
	func(i string, c string) bool { return squash(i) == squash(c) },
	func(i string, c string) bool { return strings.HasPrefix(squash(c), squash(i)) },
	func(i string, c string) bool { return strings.Contains(squash(c), squash(i)) },
}

// Typos are only forgiven in inputs long enough that a typo is unlikely to
// turn one real name into another.
const minTypoLength = 4

func typoLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// fuzzyLookup looks up "backwards" in a map of display names.
//
// Returns the matching key and its display name, which is not necessarily
// equal to "to" due to fuzzy matching.
func fuzzyLookup[K comparable](candidates map[K]string, to string, what string) (K, string, error) {
	var zero K

	for _, match := range fuzzy {
		matches := []K{}
		names := []string{}
		for k, v := range candidates {
			if match(to, v) {
				matches = append(matches, k)
				names = append(names, v)
			}
		}
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			slices.Sort(names)
			return zero, "", fmt.Errorf("ambiguous argument: %s could be anything from {%s}", to, strings.Join(names, ", "))
		}
		return matches[0], names[0], nil
	}

	// Last resort: the closest name within a few edits.
	if len(squash(to)) >= minTypoLength {
		best := -1
		matches := []K{}
		names := []string{}
		for k, v := range candidates {
			d := levenshtein.ComputeDistance(squash(to), squash(v))
			if d > typoLimit(len(v)) {
				continue
			}
			if best < 0 || d < best {
				best, matches, names = d, nil, nil
			}
			if d == best {
				matches = append(matches, k)
				names = append(names, v)
			}
		}
		if len(matches) == 1 {
			return matches[0], names[0], nil
		}
		if len(matches) > 1 {
			slices.Sort(names)
			return zero, "", fmt.Errorf("ambiguous argument: %s could be anything from {%s}", to, strings.Join(names, ", "))
		}
	}

	return zero, "", errors.Errorf("%s could not be matched to a valid value for %s", to, what)
}
