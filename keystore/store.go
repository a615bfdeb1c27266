// Package keystore keeps toy RSA key halves and ciphertexts in small text
// files named after the address they belong to.
package keystore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RedPaladin7/peerchat/toyrsa"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type KeyKind uint8

const (
	Public KeyKind = iota
	Private
)

func (k KeyKind) String() string {
	switch k {
	case Public:
		return "public"
	case Private:
		return "private"
	default:
		return "invalid"
	}
}

// SanitizeAddress turns an address into a file name component. An IPv4
// mapped IPv6 prefix is dropped first so both forms of a peer map to one name.
func SanitizeAddress(addr string) string {
	addr = strings.TrimPrefix(addr, "::ffff:")
	return strings.NewReplacer(".", "_", ":", "_").Replace(addr)
}

// FileName returns "<sanitized>_public.key" or "<sanitized>_private.key".
func FileName(addr string, kind KeyKind) string {
	return fmt.Sprintf("%s_%s.key", SanitizeAddress(addr), kind)
}

type Store struct {
	dir string
}

func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Path(addr string, kind KeyKind) string {
	return filepath.Join(s.dir, FileName(addr, kind))
}

// Resolve confines name to the store directory.
func (s *Store) Resolve(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *Store) SavePublicKey(key toyrsa.PublicKey, addr string) (string, error) {
	path := s.Path(addr, Public)
	return path, writePair(path, key.E, key.N)
}

func (s *Store) SavePrivateKey(key toyrsa.PrivateKey, addr string) (string, error) {
	path := s.Path(addr, Private)
	return path, writePair(path, key.D, key.N)
}

// SaveKeyPair writes both halves under addr.
func (s *Store) SaveKeyPair(kp *toyrsa.KeyPair, addr string) error {
	if _, err := s.SavePublicKey(kp.Public, addr); err != nil {
		return err
	}
	_, err := s.SavePrivateKey(kp.Private, addr)
	return err
}

// LoadPublicKey reads "<e> <n>". Missing values stay zero.
func LoadPublicKey(path string) toyrsa.PublicKey {
	a, b := readPair(path)
	return toyrsa.PublicKey{E: a, N: b}
}

// LoadPrivateKey reads "<d> <n>". Missing values stay zero.
func LoadPrivateKey(path string) toyrsa.PrivateKey {
	a, b := readPair(path)
	return toyrsa.PrivateKey{D: a, N: b}
}

// Delete removes the key file for addr. A missing file is not an error.
func (s *Store) Delete(addr string, kind KeyKind) error {
	path := s.Path(addr, kind)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %s", path)
	}
	return nil
}

// DeleteKeyPair removes both key files for addr, attempting each.
func (s *Store) DeleteKeyPair(addr string) error {
	errPub := s.Delete(addr, Public)
	errPriv := s.Delete(addr, Private)
	if errPub != nil {
		return errPub
	}
	return errPriv
}

// SaveCipher writes the values space separated on one line.
func SaveCipher(cipher toyrsa.Ciphertext, path string) error {
	if err := os.WriteFile(path, []byte(cipher.Join(" ")), 0644); err != nil {
		return errors.Wrapf(err, "write cipher %s", path)
	}
	return nil
}

// LoadCipher reads integers until the first token that is not one. An
// unreadable file gives an empty ciphertext.
func LoadCipher(path string) toyrsa.Ciphertext {
	cipher := toyrsa.Ciphertext{}
	f, err := os.Open(path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path": path,
		}).Debugf("cipher file unreadable: %s", err)
		return cipher
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		v, err := strconv.ParseInt(sc.Text(), 10, 64)
		if err != nil {
			break
		}
		cipher = append(cipher, v)
	}
	return cipher
}

func writePair(path string, a, b int64) error {
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%d %d", a, b)), 0644); err != nil {
		return errors.Wrapf(err, "write key %s", path)
	}
	return nil
}

func readPair(path string) (int64, int64) {
	f, err := os.Open(path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path": path,
		}).Debugf("key file unreadable: %s", err)
		return 0, 0
	}
	defer f.Close()
	return scanPair(f)
}

func scanPair(r io.Reader) (int64, int64) {
	var a, b int64
	if _, err := fmt.Fscan(r, &a); err != nil {
		return 0, 0
	}
	if _, err := fmt.Fscan(r, &b); err != nil {
		return a, 0
	}
	return a, b
}
