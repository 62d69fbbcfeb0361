package utils

import (
	"crypto/rand"
	"math/big"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Room codes avoid 0/O/1/I/L so they survive being read aloud or retyped.
const roomCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateRandomID generates a random alphanumeric string of length n.
func GenerateRandomID(n int) string {
	return randomFrom(idCharset, n)
}

// GenerateRoomCode generates an n-character code from the unambiguous alphabet.
func GenerateRoomCode(n int) string {
	return randomFrom(roomCodeCharset, n)
}

func randomFrom(charset string, n int) string {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			// Fallback to empty if crypto rand fails (highly unlikely)
			return ""
		}
		b[i] = charset[num.Int64()]
	}
	return string(b)
}
