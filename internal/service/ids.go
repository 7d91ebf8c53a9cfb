package service

import (
	"crypto/rand"
	"encoding/hex"
)

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

const apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newAPIKey returns a 32 character alphanumeric credential. Rejection
// sampling keeps the distribution uniform over the alphabet.
func newAPIKey() string {
	out := make([]byte, 0, 32)
	buf := make([]byte, 64)
	for len(out) < 32 {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) < 248 { // 248 = 4 * 62
				out = append(out, apiKeyAlphabet[int(b)%len(apiKeyAlphabet)])
				if len(out) == 32 {
					break
				}
			}
		}
	}
	return string(out)
}
