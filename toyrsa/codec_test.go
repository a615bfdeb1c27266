package toyrsa

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptHi(t *testing.T) {
	kp := KeyPairFromPrimes(101, 103)

	cipher := Encrypt("Hi", kp.Public)
	require.Len(t, cipher, 2)
	assert.Equal(t, ModPow(72, 7, 10403), cipher[0])
	assert.Equal(t, ModPow(105, 7, 10403), cipher[1])

	assert.Equal(t, "Hi", Decrypt(cipher, kp.Private))
}

func TestRoundTripAllBytes(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	for i := 0; i < 50; i++ {
		kp := GenerateKeyPairWith(r)
		cipher := Encrypt(string(all), kp.Public)
		require.Len(t, cipher, len(all))
		require.Equal(t, string(all), Decrypt(cipher, kp.Private))
	}
}

func TestRoundTripUTF8(t *testing.T) {
	kp := KeyPairFromPrimes(113, 127)
	text := "héllo, 世界"
	cipher := Encrypt(text, kp.Public)
	assert.Len(t, cipher, len(text))
	assert.Equal(t, text, Decrypt(cipher, kp.Private))
}

func TestEncryptEmpty(t *testing.T) {
	kp := KeyPairFromPrimes(101, 103)
	cipher := Encrypt("", kp.Public)
	assert.NotNil(t, cipher)
	assert.Empty(t, cipher)
	assert.Equal(t, "", Decrypt(cipher, kp.Private))
}

func TestEncryptRejectsInvalidKey(t *testing.T) {
	tests := []struct {
		name string
		key  PublicKey
	}{
		{"zero key", PublicKey{}},
		{"zero exponent", PublicKey{E: 0, N: 10403}},
		{"zero modulus", PublicKey{E: 7, N: 0}},
		{"negative modulus", PublicKey{E: 7, N: -10403}},
		{"negative exponent", PublicKey{E: -7, N: 10403}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Encrypt("Hi", tt.key))
		})
	}
}

func TestDecryptWithWrongKeyDoesNotFail(t *testing.T) {
	kp := KeyPairFromPrimes(101, 103)
	other := KeyPairFromPrimes(107, 109)
	cipher := Encrypt("secret", kp.Public)
	out := Decrypt(cipher, other.Private)
	assert.Len(t, out, len("secret"))
	assert.Equal(t, "", Decrypt(cipher, PrivateKey{}))
}

func TestCiphertextJoin(t *testing.T) {
	assert.Equal(t, "12,34,5", Ciphertext{12, 34, 5}.Join(","))
	assert.Equal(t, "7", Ciphertext{7}.Join(" "))
	assert.Equal(t, "", Ciphertext{}.Join(","))
}
