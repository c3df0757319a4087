package pix

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	payloadNameMax = 13

	// FallbackExpiration is the lifetime, in seconds, of locally fabricated charges.
	FallbackExpiration = 300
)

// FallbackPayload fabricates the copy-paste code shown when the provider is not
// used. It follows the BR Code field layout loosely and carries no valid CRC.
func FallbackPayload(key uuid.UUID, amount float64, payerName string) string {
	return fmt.Sprintf(
		"00020126580014BR.GOV.BCB.PIX0136%s520400005303986540%.2f5802BR5913%s6008SAOPAULO62070503***6304",
		key.String(), amount, truncateRunes(payerName, payloadNameMax),
	)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// OnlyDigits strips every non-digit, e.g. a formatted CPF to its 11 digits.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
