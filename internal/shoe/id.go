package shoe

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Crockford base32, as used by TypeID
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// idLength is 130 bits (two zero pad bits + 128) in 5-bit groups
const idLength = 26

// NewID returns a time-sortable shoe identifier: a UUIDv7 encoded as 26
// lower-case base32 characters.
func NewID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate shoe id: %w", err)
	}
	return encodeBase32(u), nil
}

func encodeBase32(data [16]byte) string {
	var b strings.Builder
	b.Grow(idLength)
	for i := 0; i < idLength; i++ {
		var value byte
		for bit := 0; bit < 5; bit++ {
			pos := i*5 + bit - 2
			value <<= 1
			if pos < 0 {
				continue
			}
			value |= (data[pos/8] >> (7 - pos%8)) & 1
		}
		b.WriteByte(alphabet[value])
	}
	return b.String()
}

// ValidateID checks that id has the shape produced by NewID
func ValidateID(id string) error {
	if len(id) != idLength {
		return fmt.Errorf("shoe id must be exactly %d characters, got %d", idLength, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("shoe id first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
