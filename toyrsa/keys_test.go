package toyrsa

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPairFromPrimesKnownValues(t *testing.T) {
	kp := KeyPairFromPrimes(101, 103)

	assert.Equal(t, int64(10403), kp.Public.N)
	assert.Equal(t, int64(10403), kp.Private.N)
	assert.Equal(t, int64(10200), kp.Phi())
	// 3 and 5 both divide 10200.
	assert.Equal(t, int64(7), kp.Public.E)
	assert.Equal(t, int64(8743), kp.Private.D)
}

func TestGeneratedKeyPairsAreConsistent(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for i := 0; i < 500; i++ {
		kp := GenerateKeyPairWith(r)

		require.NotEqual(t, kp.P, kp.Q)
		require.True(t, IsPrime(kp.P))
		require.True(t, IsPrime(kp.Q))
		require.Equal(t, kp.P*kp.Q, kp.Public.N)
		require.Equal(t, kp.Public.N, kp.Private.N)

		phi := kp.Phi()
		require.Equal(t, int64(1), GCD(kp.Public.E, phi))
		require.Equal(t, int64(1), kp.Public.E*kp.Private.D%phi)
		require.True(t, kp.Public.E > 0 && kp.Public.E < kp.Public.N)
		require.Equal(t, int64(1), kp.Public.E%2)
	}
}

func TestGenerateKeyPairUsesSharedSource(t *testing.T) {
	kp := GenerateKeyPair()
	require.True(t, kp.Public.Valid())
	require.True(t, kp.Private.Valid())
	assert.Greater(t, kp.Public.N, int64(255))
}

func TestPublicKeyValid(t *testing.T) {
	assert.False(t, PublicKey{}.Valid())
	assert.False(t, PublicKey{E: 0, N: 10}.Valid())
	assert.False(t, PublicKey{E: 3, N: -1}.Valid())
	assert.True(t, PublicKey{E: 3, N: 33}.Valid())
	assert.Equal(t, "(e=7, n=10403)", PublicKey{E: 7, N: 10403}.String())
}
