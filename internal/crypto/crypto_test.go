package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, KeyLength)
}

func TestKeyFromBase64(t *testing.T) {
	key, err := KeyFromBase64(" " + base64.StdEncoding.EncodeToString(testKey(7)) + "\n")
	require.NoError(t, err)
	assert.Equal(t, testKey(7), key)

	_, err = KeyFromBase64(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = KeyFromBase64("%%%")
	assert.Error(t, err)
}

func TestSealRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey(1))
	require.NoError(t, err)

	plain := []byte(`{"access_token":"abc"}`)
	first, err := s.Seal(plain)
	require.NoError(t, err)
	second, err := s.Seal(plain)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "nonces must differ")
	assert.NotContains(t, string(first), "access_token")

	opened, err := s.Open(first)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestOpenRejectsForeignAndTamperedValues(t *testing.T) {
	a, err := NewSealer(testKey(1))
	require.NoError(t, err)
	b, err := NewSealer(testKey(2))
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailure)

	_, err = a.Open([]byte("not base64!"))
	assert.ErrorIs(t, err, ErrMalformedSealed)

	_, err = a.Open([]byte(base64.StdEncoding.EncodeToString([]byte("tiny"))))
	assert.ErrorIs(t, err, ErrMalformedSealed)

	raw, err := base64.StdEncoding.DecodeString(string(sealed))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	_, err = a.Open([]byte(base64.StdEncoding.EncodeToString(raw)))
	assert.ErrorIs(t, err, ErrDecryptionFailure)
}

func TestNewSealerRejectsShortKey(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
