package crypto

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

const tokenSize = 32

// ErrInvalidToken is returned when a provided token is malformed.
var ErrInvalidToken = errors.New("invalid token")

const tokenHashKey = "switchyard token"

// NewToken generates a new random API token. It returns the Base58 encoded
// token that is handed to the client, and its hash that is stored.
func NewToken() (token string, hash []byte, err error) {
	data, err := RandomData(tokenSize)
	if err != nil {
		return "", nil, err
	}

	hash, err = Hash(tokenHashKey, data)
	if err != nil {
		return "", nil, err
	}

	return base58.Encode(data), hash, nil
}

// HashToken decodes the given token string and returns its hash.
func HashToken(token string) ([]byte, error) {
	if len(token) == 0 {
		return nil, errors.New("empty token")
	}

	data, err := base58.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("failed decoding token: %w", err)
	}
	if len(data) != tokenSize {
		return nil, ErrInvalidToken
	}

	return Hash(tokenHashKey, data)
}
