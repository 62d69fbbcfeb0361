package game

import (
	"crypto/rand"
	"math/big"
)

// GenerateAnswer produces a uniform random digit code of length n with no
// repeated digits. n must be between 1 and 10.
func GenerateAnswer(n int) string {
	digits := []byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	code := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return ""
		}
		j := idx.Int64()
		code = append(code, digits[j])
		digits = append(digits[:j], digits[j+1:]...)
	}
	return string(code)
}
