// Package randstr generates the short random identifiers used both as
// short URL codes and as user IDs.
package randstr

import (
	"crypto/rand"
	"math/big"
)

const (
	// Length is the number of symbols in every generated identifier.
	Length = 6

	// Alphabet holds the 62 symbols identifiers are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var alphabetLen = big.NewInt(int64(len(Alphabet)))

// New returns a fresh identifier of Length symbols, each picked
// uniformly at random from Alphabet.
func New() string {
	result := make([]byte, Length)
	for i := range result {
		randomIndex, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic(err)
		}
		result[i] = Alphabet[randomIndex.Int64()]
	}

	return string(result)
}
