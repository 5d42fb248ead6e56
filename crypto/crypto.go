package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// RandomData returns a slice of the specified size containing random data.
func RandomData(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("size cannot be negative")
	}

	data := make([]byte, size)
	_, err := rand.Read(data)
	if err != nil {
		return nil, fmt.Errorf("failed generating random data: %w", err)
	}

	return data, nil
}

// Hash returns the 256-bit BLAKE2b hash of data. If key is not empty, it's used
// as the MAC key, and must not be longer than 64 bytes.
func Hash(key string, data []byte) ([]byte, error) {
	var k []byte
	if key != "" {
		k = []byte(key)
	}
	h, err := blake2b.New256(k)
	if err != nil {
		return nil, fmt.Errorf("failed creating hash: %w", err)
	}
	h.Write(data)

	return h.Sum(nil), nil
}
