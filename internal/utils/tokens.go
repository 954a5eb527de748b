package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewLinkCode returns nBytes of randomness as upper-case hex. 16 bytes give
// the 32-character codes admins paste into the Telegram bot.
func NewLinkCode(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 16
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
