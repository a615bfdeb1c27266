package toyrsa

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func naivePrime(n int64) bool {
	if n < 2 {
		return false
	}
	for i := int64(2); i < n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

func TestIsPrimeAgreesWithTrialDivision(t *testing.T) {
	for n := int64(-20); n <= 10000; n++ {
		if IsPrime(n) != naivePrime(n) {
			t.Fatalf("IsPrime(%d) = %v, want %v", n, IsPrime(n), naivePrime(n))
		}
	}
}

func TestIsPrimeEdgeCases(t *testing.T) {
	tests := []struct {
		n    int64
		want bool
	}{
		{-7, false},
		{0, false},
		{1, false},
		{2, true},
		{3, true},
		{4, false},
		{9, false},
		{101, true},
		{499, true},
		{500, false},
		{7919, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPrime(tt.n), "IsPrime(%d)", tt.n)
	}
}

func TestRandomPrimeStaysInRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		p := RandomPrime(r, 100, 500)
		require.True(t, IsPrime(p), "drew non-prime %d", p)
		require.GreaterOrEqual(t, p, int64(100))
		require.LessOrEqual(t, p, int64(500))
	}
}

func TestRandomPrimeSingleCandidate(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	assert.Equal(t, int64(101), RandomPrime(r, 101, 101))
}

func TestGCD(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{0, 0, 0},
		{0, 5, 5},
		{5, 0, 5},
		{12, 18, 6},
		{17, 5, 1},
		{3, 10200, 3},
		{7, 10200, 1},
		{-12, 18, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GCD(tt.a, tt.b), "GCD(%d, %d)", tt.a, tt.b)
	}
}

func TestModInverse(t *testing.T) {
	assert.Equal(t, int64(8743), ModInverse(7, 10200))
	assert.Equal(t, int64(0), ModInverse(3, 1))

	for m := int64(2); m < 300; m++ {
		for a := int64(1); a < m; a++ {
			if GCD(a, m) != 1 {
				continue
			}
			x := ModInverse(a, m)
			require.True(t, x >= 0 && x < m, "ModInverse(%d, %d) = %d out of range", a, m, x)
			require.Equal(t, int64(1), a*x%m, "ModInverse(%d, %d) = %d", a, m, x)
		}
	}
}

func bruteModPow(base, exp, m int64) int64 {
	result := int64(1) % m
	b := ((base % m) + m) % m
	for i := int64(0); i < exp; i++ {
		result = result * b % m
	}
	return result
}

func TestModPowMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		base := r.Int63n(1001)
		exp := r.Int63n(1001)
		m := 1 + r.Int63n(1000)
		require.Equal(t, bruteModPow(base, exp, m), ModPow(base, exp, m),
			"ModPow(%d, %d, %d)", base, exp, m)
	}
}

func TestModPowModulusOne(t *testing.T) {
	for x := int64(-5); x < 50; x++ {
		for e := int64(0); e < 10; e++ {
			require.Equal(t, int64(0), ModPow(x, e, 1))
		}
	}
}

func TestModPowNormalizesNegativeBase(t *testing.T) {
	assert.Equal(t, bruteModPow(-3, 5, 7), ModPow(-3, 5, 7))
	assert.Equal(t, ModPow(4, 5, 7), ModPow(-3, 5, 7))
}

func TestModPowLargeModulus(t *testing.T) {
	// n near the top of the key range squares well past 32 bits.
	n := int64(499 * 491)
	assert.Equal(t, bruteModPow(n-1, 3, n), ModPow(n-1, 3, n))
	assert.Equal(t, int64(1), ModPow(n-1, 2, n))
}

func TestModPowMatchesBigInt(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		base := r.Int63()
		exp := r.Int63n(1 << 20)
		m := 2 + r.Int63n(1<<62)
		want := new(big.Int).Exp(big.NewInt(base), big.NewInt(exp), big.NewInt(m))
		require.Equal(t, want.Int64(), ModPow(base, exp, m), "ModPow(%d, %d, %d)", base, exp, m)
	}
}

func TestModInverseMatchesBigInt(t *testing.T) {
	for _, p := range [][2]int64{{101, 103}, {499, 491}, {127, 431}} {
		phi := (p[0] - 1) * (p[1] - 1)
		for e := int64(3); e < 200; e += 2 {
			if GCD(e, phi) != 1 {
				continue
			}
			want := new(big.Int).ModInverse(big.NewInt(e), big.NewInt(phi))
			require.Equal(t, want.Int64(), ModInverse(e, phi), "ModInverse(%d, %d)", e, phi)
		}
	}
}
