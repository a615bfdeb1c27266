package toyrsa

import (
	"math/bits"
	"math/rand"
)

// IsPrime reports whether n is prime using trial division up to sqrt(n).
func IsPrime(n int64) bool {
	if n <= 1 {
		return false
	}
	if n == 2 || n == 3 {
		return true
	}
	if n%2 == 0 {
		return false
	}
	for i := int64(3); i*i <= n; i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// RandomPrime draws from [low, high] until it hits a prime. The range must
// contain at least one prime or this never returns.
func RandomPrime(rng *rand.Rand, low, high int64) int64 {
	for {
		p := low + rng.Int63n(high-low+1)
		if IsPrime(p) {
			return p
		}
	}
}

func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ModInverse returns x in [0, m) with a*x = 1 (mod m). gcd(a, m) must be 1.
func ModInverse(a, m int64) int64 {
	if m == 1 {
		return 0
	}
	oldR, r := a%m, m
	if oldR < 0 {
		oldR += m
	}
	oldS, s := int64(1), int64(0)
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
	}
	x := oldS % m
	if x < 0 {
		x += m
	}
	return x
}

// ModPow computes base^exp mod m by square-and-multiply. The products are
// taken at 128 bits so any int64 modulus is safe. A modulus below 2 yields 0,
// and a negative exponent is treated as 0.
func ModPow(base, exp, m int64) int64 {
	if m <= 1 {
		return 0
	}
	b := base % m
	if b < 0 {
		b += m
	}
	mod := uint64(m)
	result, x := uint64(1), uint64(b)
	for exp > 0 {
		if exp&1 == 1 {
			result = mulMod(result, x, mod)
		}
		x = mulMod(x, x, mod)
		exp >>= 1
	}
	return int64(result)
}

func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}
