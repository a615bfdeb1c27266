package p2p

import (
	"testing"

	"github.com/RedPaladin7/peerchat/toyrsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrames(t *testing.T) {
	key := MessageKey{Key: toyrsa.PublicKey{E: 7, N: 10403}}
	assert.Equal(t, "KEY:7:10403\n", string(Encode(key)))

	msg := MessageCipher{Cipher: toyrsa.Ciphertext{12, 34, 56}}
	assert.Equal(t, "MSG:12,34,56\n", string(Encode(msg)))
}

func TestParseKeyLine(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want toyrsa.PublicKey
	}{
		{"KEY:7:10403", true, toyrsa.PublicKey{E: 7, N: 10403}},
		{"KEY:7:10403\r", true, toyrsa.PublicKey{E: 7, N: 10403}},
		{"KEY:0:0", true, toyrsa.PublicKey{}},
		{"KEY:7", false, toyrsa.PublicKey{}},
		{"KEY:7:10403:1", false, toyrsa.PublicKey{}},
		{"KEY:a:10403", false, toyrsa.PublicKey{}},
		{"KEY:7:n", false, toyrsa.PublicKey{}},
		{"KEY::", false, toyrsa.PublicKey{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, ok := ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, MessageKey{Key: tt.want}, msg)
			}
		})
	}
}

func TestParseCipherLineSkipsBadTokens(t *testing.T) {
	msg, ok := ParseLine("MSG:12,abc,34")
	require.True(t, ok)
	assert.Equal(t, MessageCipher{Cipher: toyrsa.Ciphertext{12, 34}}, msg)

	msg, ok = ParseLine("MSG:1,,2,")
	require.True(t, ok)
	assert.Equal(t, MessageCipher{Cipher: toyrsa.Ciphertext{1, 2}}, msg)
}

func TestParseLineRejects(t *testing.T) {
	for _, line := range []string{"", "HELLO", "MSG:", "MSG:x,y", "key:1:2", "MSGX"} {
		_, ok := ParseLine(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestCipherFrameRoundTrip(t *testing.T) {
	kp := toyrsa.KeyPairFromPrimes(101, 103)
	cipher := toyrsa.Encrypt("Hi there", kp.Public)
	msg, ok := ParseLine(string(Encode(MessageCipher{Cipher: cipher})))
	require.True(t, ok)
	assert.Equal(t, "Hi there", toyrsa.Decrypt(msg.(MessageCipher).Cipher, kp.Private))
}
