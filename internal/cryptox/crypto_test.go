package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	User   string `json:"user"`
	Access string `json:"access_token"`
}

func TestSealOpenRecord_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("correct horse"), NewSalt())

	in := testRecord{User: "u-1", Access: "tok"}
	ct, nonce, err := SealRecord(in, key)
	require.NoError(t, err)
	require.NotEmpty(t, ct)
	require.Len(t, nonce, 12)

	var out testRecord
	require.NoError(t, OpenRecord(ct, nonce, key, &out))
	assert.Equal(t, in, out)
}

func TestOpenRecord_WrongKeyFails(t *testing.T) {
	salt := NewSalt()
	key := DeriveKey([]byte("passphrase"), salt)
	other := DeriveKey([]byte("different"), salt)

	ct, nonce, err := SealRecord(testRecord{User: "u-1"}, key)
	require.NoError(t, err)

	var out testRecord
	assert.Error(t, OpenRecord(ct, nonce, other, &out))
}

func TestOpenRecord_TamperedCiphertextFails(t *testing.T) {
	key := DeriveKey([]byte("passphrase"), NewSalt())

	ct, nonce, err := SealRecord(testRecord{User: "u-1"}, key)
	require.NoError(t, err)

	ct[0] ^= 0xff

	var out testRecord
	assert.Error(t, OpenRecord(ct, nonce, key, &out))
}

func TestDeriveKey_DeterministicPerSalt(t *testing.T) {
	salt := NewSalt()
	a := DeriveKey([]byte("p"), salt)
	b := DeriveKey([]byte("p"), salt)
	c := DeriveKey([]byte("p"), NewSalt())

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
