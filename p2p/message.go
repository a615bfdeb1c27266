package p2p

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RedPaladin7/peerchat/toyrsa"
)

const (
	keyPrefix = "KEY:"
	msgPrefix = "MSG:"
)

// MessageKey announces the sender's public key: "KEY:<e>:<n>".
type MessageKey struct {
	Key toyrsa.PublicKey
}

func (msg MessageKey) String() string {
	return fmt.Sprintf("%s%d:%d", keyPrefix, msg.Key.E, msg.Key.N)
}

// MessageCipher carries one encrypted chat message: "MSG:<c1>,...,<cn>".
type MessageCipher struct {
	Cipher toyrsa.Ciphertext
}

func (msg MessageCipher) String() string {
	return msgPrefix + msg.Cipher.Join(",")
}

// Encode returns the frame as a newline terminated line.
func Encode(msg fmt.Stringer) []byte {
	return []byte(msg.String() + "\n")
}

// ParseLine decodes one protocol line. Lines that are not well formed are
// reported as not ok and must be ignored by the caller.
func ParseLine(line string) (any, bool) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, keyPrefix):
		return parseKey(line)
	case strings.HasPrefix(line, msgPrefix):
		return parseCipher(line[len(msgPrefix):])
	default:
		return nil, false
	}
}

func parseKey(line string) (any, bool) {
	parts := strings.Split(line, ":")
	if len(parts) != 3 {
		return nil, false
	}
	e, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, false
	}
	n, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, false
	}
	return MessageKey{Key: toyrsa.PublicKey{E: e, N: n}}, true
}

func parseCipher(body string) (any, bool) {
	cipher := toyrsa.Ciphertext{}
	for _, tok := range strings.Split(body, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
		if err != nil {
			continue
		}
		cipher = append(cipher, v)
	}
	if len(cipher) == 0 {
		return nil, false
	}
	return MessageCipher{Cipher: cipher}, true
}
