package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomBase64 returns n bytes from crypto/rand encoded with standard
// base64.  64 bytes yield an 88 character string.
func RandomBase64(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
