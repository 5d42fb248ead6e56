package crypto

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	t.Parallel()

	token, hash, err := NewToken()
	require.NoError(t, err)
	require.Len(t, hash, 32)

	got, err := HashToken(token)
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	token2, hash2, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	assert.NotEqual(t, hash, hash2)
}

func TestHashTokenErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		token  string
		expErr string
	}{
		{name: "err/empty", token: "", expErr: "empty token"},
		{name: "err/not_base58", token: "0OIl", expErr: "failed decoding token"},
		{name: "err/short", token: base58.Encode([]byte("short")), expErr: ErrInvalidToken.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := HashToken(tt.token)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expErr)
		})
	}
}

func TestHash(t *testing.T) {
	t.Parallel()

	h1, err := Hash("", []byte("data"))
	require.NoError(t, err)
	h2, err := Hash("key", []byte("data"))
	require.NoError(t, err)
	assert.Len(t, h1, 32)
	assert.NotEqual(t, h1, h2)

	_, err = Hash(string(make([]byte, 65)), []byte("data"))
	assert.Error(t, err)
}
