package usecase

import (
	"crypto/rand"
	"io"
)

// generateCardCode creates a secure random fixed-length card code.
// The character set avoids ambiguous characters like O/0, I/1, l, and its
// size divides 256 so the modulo draw stays uniform.
func generateCardCode() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLength = 16

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return string(buffer), nil
}
