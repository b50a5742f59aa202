// Package util provides small helpers shared by the miner commands.
package util

import (
	"math/rand/v2"
	"strings"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomName returns a player tag of the form "M" followed by two uppercase
// letters, drawn from rng. A nil rng uses the global source.
func RandomName(rng *rand.Rand) string {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	var b strings.Builder
	b.WriteByte('M')
	for i := 0; i < 2; i++ {
		b.WriteByte(letters[intN(len(letters))])
	}
	return b.String()
}

// PlayerName returns name trimmed, or a random tag when it is blank.
func PlayerName(name string, rng *rand.Rand) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return RandomName(rng)
}
