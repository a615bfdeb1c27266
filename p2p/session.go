package p2p

import (
	"fmt"

	"github.com/RedPaladin7/peerchat/keystore"
	"github.com/RedPaladin7/peerchat/toyrsa"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrEmptyMessage = errors.New("empty message")
	ErrNoRemoteKey  = errors.New("peer public key not received")
	ErrNoLocalKeys  = errors.New("no local key pair")
)

type SessionConfig struct {
	LocalAddr string
	Store     *keystore.Store
	Notifier  Notifier
}

// Session is the per-connection protocol state: the local key pair, the
// peer's announced key and the lifecycle state. It is not safe for
// concurrent use; one event loop must drive it.
type Session struct {
	localAddr string
	store     *keystore.Store
	notify    Notifier
	send      func([]byte) error

	state     ConnState
	peerAddr  string
	localKeys *toyrsa.KeyPair
	remoteKey *toyrsa.PublicKey
	lines     lineBuffer
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Store == nil {
		cfg.Store = keystore.New(".")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = LogNotifier{}
	}
	if cfg.LocalAddr == "" {
		cfg.LocalAddr = loopbackAddr
	}
	return &Session{
		localAddr: cfg.LocalAddr,
		store:     cfg.Store,
		notify:    cfg.Notifier,
		state:     StateIdle,
	}
}

func (s *Session) State() ConnState           { return s.state }
func (s *Session) PeerAddr() string           { return s.peerAddr }
func (s *Session) LocalAddr() string          { return s.localAddr }
func (s *Session) LocalKeys() *toyrsa.KeyPair { return s.localKeys }

func (s *Session) RemoteKey() (toyrsa.PublicKey, bool) {
	if s.remoteKey == nil {
		return toyrsa.PublicKey{}, false
	}
	return *s.remoteKey, true
}

// Attach sets where outgoing frames are written.
func (s *Session) Attach(send func([]byte) error) {
	s.send = send
}

// GenerateKeys creates a fresh key pair and saves it under the local
// address. The pair is kept even when saving fails. While connected the new
// public key is announced so the peer stops using the old one.
func (s *Session) GenerateKeys() (*toyrsa.KeyPair, error) {
	kp, err := s.generateKeys()
	if !s.state.Connected() {
		return kp, err
	}
	if werr := s.write(Encode(MessageKey{Key: kp.Public})); werr != nil {
		s.Close(werr)
		return kp, errors.Wrap(werr, "announce new key")
	}
	logrus.WithFields(logrus.Fields{
		"peer": s.peerAddr,
		"key":  kp.Public,
	}).Info("re-announced public key")
	return kp, err
}

func (s *Session) generateKeys() (*toyrsa.KeyPair, error) {
	kp := toyrsa.GenerateKeyPair()
	s.localKeys = kp
	if err := s.store.SaveKeyPair(kp, s.localAddr); err != nil {
		return kp, err
	}
	logrus.WithFields(logrus.Fields{
		"public":  keystore.FileName(s.localAddr, keystore.Public),
		"private": keystore.FileName(s.localAddr, keystore.Private),
		"n":       kp.Public.N,
		"e":       kp.Public.E,
	}).Info("key pair generated")
	return kp, nil
}

// UseKeys installs an existing key pair without touching the store.
func (s *Session) UseKeys(kp *toyrsa.KeyPair) {
	s.localKeys = kp
}

// Listen marks the session as waiting for an inbound connection.
func (s *Session) Listen() {
	s.Reset()
	if s.state == StateIdle {
		s.state = StateListening
	}
}

// Dial marks the session as connecting to addr.
func (s *Session) Dial(addr string) {
	s.Reset()
	if s.state == StateIdle || s.state == StateListening {
		s.state = StateConnecting
		s.notify.Status("Connecting to " + addr + "...")
	}
}

// Reset returns a closed session to Idle.
func (s *Session) Reset() {
	if s.state == StateClosed {
		s.state = StateIdle
	}
}

func (s *Session) Handle(ev Event) {
	switch ev.Kind {
	case EventConnected:
		s.handleConnected(ev.PeerAddr)
	case EventDataReceived:
		s.handleData(ev.Data)
	case EventDisconnected:
		s.Close(nil)
	case EventError:
		s.Close(ev.Err)
	}
}

func (s *Session) handleConnected(peerAddr string) {
	if s.state.Connected() {
		s.dropPeer()
	}
	s.state = StateKeyPending
	s.peerAddr = peerAddr
	s.remoteKey = nil
	s.lines.Reset()
	s.notify.Status("Peer connected from " + peerAddr + ". Exchanging keys...")

	if s.localKeys == nil {
		if _, err := s.generateKeys(); err != nil {
			logrus.Warnf("saving generated keys failed: %s", err)
		}
	}
	if err := s.write(Encode(MessageKey{Key: s.localKeys.Public})); err != nil {
		s.Close(err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"peer": peerAddr,
		"key":  s.localKeys.Public,
	}).Info("sent public key")
}

func (s *Session) handleData(data []byte) {
	if !s.state.Connected() {
		return
	}
	for _, line := range s.lines.Feed(data) {
		s.handleLine(line)
		if !s.state.Connected() {
			return
		}
	}
}

func (s *Session) handleLine(line string) {
	msg, ok := ParseLine(line)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"peer": s.peerAddr,
			"line": line,
		}).Debug("ignoring malformed line")
		return
	}
	switch v := msg.(type) {
	case MessageKey:
		s.handleKey(v.Key)
	case MessageCipher:
		s.handleCipher(v.Cipher)
	}
}

func (s *Session) handleKey(key toyrsa.PublicKey) {
	s.remoteKey = &key
	if _, err := s.store.SavePublicKey(key, s.peerAddr); err != nil {
		logrus.Warnf("saving peer key failed: %s", err)
	}
	s.state = StateReady
	s.notify.KeysExchanged(s.peerAddr, key)
}

func (s *Session) handleCipher(cipher toyrsa.Ciphertext) {
	if s.localKeys == nil {
		return
	}
	s.notify.Message(SenderPeer, toyrsa.Decrypt(cipher, s.localKeys.Private))
}

// Send encrypts text with the peer's key and writes it as a MSG frame.
func (s *Session) Send(text string) (toyrsa.Ciphertext, error) {
	if !s.state.Connected() {
		return nil, ErrNotConnected
	}
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.state != StateReady || s.remoteKey == nil {
		return nil, ErrNoRemoteKey
	}
	cipher := toyrsa.Encrypt(text, *s.remoteKey)
	if len(cipher) == 0 {
		return nil, errors.Wrapf(ErrNoRemoteKey, "unusable key %s", s.remoteKey)
	}
	if err := s.write(Encode(MessageCipher{Cipher: cipher})); err != nil {
		s.Close(err)
		return nil, errors.Wrap(err, "send message")
	}
	s.notify.Sent(text, cipher)
	return cipher, nil
}

// Abort reports a failed outbound attempt. No connection was made, so key
// material is left alone.
func (s *Session) Abort(err error) {
	if s.state != StateConnecting {
		return
	}
	s.state = StateClosed
	s.notify.Status(fmt.Sprintf("Error: %s", err))
}

// Close ends the connection and deletes the local key files and the
// peer's key file. It is safe to call any number of times.
func (s *Session) Close(err error) {
	wasConnected := s.state.Connected() || s.state == StateConnecting
	peer := s.peerAddr

	s.dropPeer()
	if delErr := s.store.DeleteKeyPair(s.localAddr); delErr != nil {
		logrus.Warnf("deleting local keys failed: %s", delErr)
	}
	s.localKeys = nil
	s.send = nil
	s.state = StateClosed

	if wasConnected {
		s.notify.Closed(peer, err)
	}
}

func (s *Session) dropPeer() {
	if s.peerAddr != "" {
		if err := s.store.Delete(s.peerAddr, keystore.Public); err != nil {
			logrus.Warnf("deleting peer key failed: %s", err)
		}
	}
	s.peerAddr = ""
	s.remoteKey = nil
	s.lines.Reset()
}

func (s *Session) write(b []byte) error {
	if s.send == nil {
		return ErrNotConnected
	}
	return s.send(b)
}
