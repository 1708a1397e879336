// Package nanoid generates short unique identifiers.
package nanoid

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	defaultSize = 16

	lowerUpper    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numLowerUpper = "0123456789" + lowerUpper
)

func getSize(l ...int) int {
	size := defaultSize
	if len(l) > 0 {
		size = l[0]
	}
	return size
}

// Must generates an optional length nanoid with the default alphabet.
func Must(l ...int) string {
	return gonanoid.Must(getSize(l...))
}

// String generates an optional length nanoid of letters only.
func String(l ...int) string {
	return gonanoid.MustGenerate(lowerUpper, getSize(l...))
}

// Alphanumeric generates an optional length nanoid of digits and letters.
func Alphanumeric(l ...int) string {
	return gonanoid.MustGenerate(numLowerUpper, getSize(l...))
}
