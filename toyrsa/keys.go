// Package toyrsa is a deliberately weak textbook RSA: primes come from a
// few hundred values and every plaintext byte is encrypted on its own.
// It exists to demonstrate the arithmetic and must not protect anything.
package toyrsa

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	PrimeRangeLow  = 100
	PrimeRangeHigh = 500
)

type PublicKey struct {
	E int64 `json:"e"`
	N int64 `json:"n"`
}

func (k PublicKey) Valid() bool {
	return k.E > 0 && k.N > 0
}

func (k PublicKey) String() string {
	return fmt.Sprintf("(e=%d, n=%d)", k.E, k.N)
}

type PrivateKey struct {
	D int64 `json:"d"`
	N int64 `json:"n"`
}

func (k PrivateKey) Valid() bool {
	return k.D > 0 && k.N > 0
}

// KeyPair holds both halves generated from the same primes P and Q.
type KeyPair struct {
	Public  PublicKey  `json:"public"`
	Private PrivateKey `json:"private"`
	P       int64      `json:"-"`
	Q       int64      `json:"-"`
}

// Phi returns the totient (p-1)(q-1) the pair was derived from.
func (kp *KeyPair) Phi() int64 {
	return (kp.P - 1) * (kp.Q - 1)
}

var (
	rngLock sync.Mutex
	rng     = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenerateKeyPair draws two distinct primes from [100, 500] and derives a
// key pair from them.
func GenerateKeyPair() *KeyPair {
	rngLock.Lock()
	defer rngLock.Unlock()
	return GenerateKeyPairWith(rng)
}

func GenerateKeyPairWith(r *rand.Rand) *KeyPair {
	p := RandomPrime(r, PrimeRangeLow, PrimeRangeHigh)
	q := RandomPrime(r, PrimeRangeLow, PrimeRangeHigh)
	for q == p {
		q = RandomPrime(r, PrimeRangeLow, PrimeRangeHigh)
	}
	return KeyPairFromPrimes(p, q)
}

// KeyPairFromPrimes picks e as the smallest odd value >= 3 coprime with phi
// and d as its inverse. p and q must be distinct primes.
func KeyPairFromPrimes(p, q int64) *KeyPair {
	n := p * q
	phi := (p - 1) * (q - 1)

	e := int64(3)
	for GCD(e, phi) != 1 {
		e += 2
	}
	d := ModInverse(e, phi)

	return &KeyPair{
		Public:  PublicKey{E: e, N: n},
		Private: PrivateKey{D: d, N: n},
		P:       p,
		Q:       q,
	}
}
