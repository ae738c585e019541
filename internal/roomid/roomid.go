// Package roomid generates the short join codes players type to enter a
// room.
package roomid

import (
	"crypto/rand"
	"strings"
)

// Room ids are 6 characters drawn from upper-case letters and digits, easy
// to read aloud and to type on a phone.
const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6
)

// RandSource supplies random indexes. *rand.Rand from math/rand/v2 satisfies
// it; tests inject a fixed source.
type RandSource interface {
	IntN(n int) int
}

// New generates a room id from the provided source. A nil source falls back
// to crypto/rand. Uniqueness is the caller's responsibility: the room arena
// regenerates on collision.
func New(src RandSource) string {
	var b [Length]byte
	if src != nil {
		for i := range b {
			b[i] = Alphabet[src.IntN(len(Alphabet))]
		}
		return string(b[:])
	}
	var raw [Length]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic("roomid: failed to read random bytes: " + err.Error())
	}
	for i := range b {
		b[i] = Alphabet[int(raw[i])%len(Alphabet)]
	}
	return string(b[:])
}

// Normalize upper-cases and trims an id as received from a client.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Valid reports whether id has the exact shape of a room id.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(Alphabet, rune(id[i])) {
			return false
		}
	}
	return true
}
