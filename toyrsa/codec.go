package toyrsa

import (
	"strconv"
	"strings"
)

// Ciphertext holds one encrypted value per plaintext byte, in order.
type Ciphertext []int64

// Join renders the values separated by sep.
func (c Ciphertext) Join(sep string) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, sep)
}

// Encrypt maps every byte of text through m^e mod n. An unset or invalid
// key yields an empty ciphertext.
func Encrypt(text string, pub PublicKey) Ciphertext {
	if !pub.Valid() {
		return Ciphertext{}
	}
	cipher := make(Ciphertext, 0, len(text))
	for i := 0; i < len(text); i++ {
		cipher = append(cipher, ModPow(int64(text[i]), pub.E, pub.N))
	}
	return cipher
}

// Decrypt maps every value through c^d mod n and keeps the low byte. A key
// that does not match the encrypting one produces garbage, not an error.
func Decrypt(cipher Ciphertext, priv PrivateKey) string {
	if priv.N <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(cipher))
	for _, v := range cipher {
		sb.WriteByte(byte(ModPow(v, priv.D, priv.N)))
	}
	return sb.String()
}
