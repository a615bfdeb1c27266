package p2p

import (
	"net"
	"sync"
	"time"

	"github.com/RedPaladin7/peerchat/keystore"
	"github.com/RedPaladin7/peerchat/toyrsa"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const defaultDialTimeout = 3 * time.Second

var (
	ErrServerStopped       = errors.New("server stopped")
	ErrKeyExchangeTimedOut = errors.New("key exchange timed out")
	ErrConnectCanceled     = errors.New("connect canceled")
)

type ServerConfig struct {
	Version            string
	ListenAddr         string
	LocalAddr          string
	KeyDir             string
	DialTimeout        time.Duration
	KeyExchangeTimeout time.Duration
	Notifier           Notifier
}

// Server owns the listener and at most one peer connection. Every
// transport event and every public call runs on the loop goroutine, so the
// Session never sees concurrent access.
type Server struct {
	ServerConfig
	transport *TCPTransport
	store     *keystore.Store
	session   *Session
	history   *History
	peer      *Peer
	listening bool

	addPeer  chan *Peer
	eventch  chan peerEvent
	cmdch    chan func()
	quitch   chan struct{}
	stopOnce sync.Once

	keyTimer *time.Timer
	keySeq   int

	dial    func(network, addr string, timeout time.Duration) (net.Conn, error)
	dialSeq int
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.LocalAddr == "" {
		cfg.LocalAddr = LocalAddress()
	}
	history := NewHistory(defaultHistorySize)
	notifiers := []Notifier{LogNotifier{}, history}
	if cfg.Notifier != nil {
		notifiers = append(notifiers, cfg.Notifier)
	}
	store := keystore.New(cfg.KeyDir)

	s := &Server{
		ServerConfig: cfg,
		store:        store,
		history:      history,
		addPeer:      make(chan *Peer, 10),
		eventch:      make(chan peerEvent, 100),
		cmdch:        make(chan func()),
		quitch:       make(chan struct{}),
		dial:         net.DialTimeout,
	}
	s.session = NewSession(SessionConfig{
		LocalAddr: cfg.LocalAddr,
		Store:     store,
		Notifier:  MultiNotifier(notifiers...),
	})

	tr := NewTCPTransport(s.ListenAddr)
	s.transport = tr
	tr.AddPeer = s.addPeer

	go s.loop()
	return s
}

// Start binds the chat port and begins accepting peers.
func (s *Server) Start() error {
	if err := s.transport.Listen(); err != nil {
		return err
	}
	s.do(func() {
		s.listening = true
		s.session.Listen()
	})
	logrus.WithFields(logrus.Fields{
		"version":    s.Version,
		"listenAddr": s.transport.Addr().String(),
		"localAddr":  s.LocalAddr,
		"keyDir":     s.store.Dir(),
	}).Info("Starting peerchat server...")
	go s.transport.AcceptLoop(s.quitch)
	return nil
}

func (s *Server) Addr() net.Addr {
	return s.transport.Addr()
}

func (s *Server) History() *History {
	return s.history
}

func (s *Server) Store() *keystore.Store {
	return s.store
}

// Connect dials addr and adopts the connection, replacing any current one.
// A Disconnect or another Connect issued while dialing wins: the late
// connection is closed and ErrConnectCanceled returned.
func (s *Server) Connect(addr string) error {
	var seq int
	if err := s.do(func() {
		if s.peer != nil {
			s.closePeer(nil)
		}
		s.dialSeq++
		seq = s.dialSeq
		s.session.Dial(addr)
	}); err != nil {
		return err
	}
	conn, err := s.dial("tcp", addr, s.DialTimeout)
	if err != nil {
		s.do(func() {
			if seq != s.dialSeq {
				return
			}
			s.session.Abort(err)
			s.relisten()
		})
		return errors.Wrapf(err, "connect to %s", addr)
	}

	adopted := false
	if err := s.do(func() {
		if seq != s.dialSeq || s.session.State() != StateConnecting {
			return
		}
		s.handleNewPeer(NewPeer(conn, true))
		adopted = true
	}); err != nil {
		conn.Close()
		return err
	}
	if !adopted {
		conn.Close()
		logrus.WithFields(logrus.Fields{
			"addr": addr,
		}).Info("dropping connection, connect was canceled")
		return ErrConnectCanceled
	}
	return nil
}

// Disconnect closes the active connection and deletes the key files. It
// succeeds when there is nothing to disconnect.
func (s *Server) Disconnect() error {
	return s.do(func() {
		s.closePeer(nil)
	})
}

func (s *Server) Send(text string) (toyrsa.Ciphertext, error) {
	var (
		cipher toyrsa.Ciphertext
		err    error
	)
	if doErr := s.do(func() {
		cipher, err = s.session.Send(text)
		s.syncPeer()
	}); doErr != nil {
		return nil, doErr
	}
	return cipher, err
}

func (s *Server) GenerateKeys() (*toyrsa.KeyPair, error) {
	var (
		kp  *toyrsa.KeyPair
		err error
	)
	if doErr := s.do(func() {
		kp, err = s.session.GenerateKeys()
		s.syncPeer()
	}); doErr != nil {
		return nil, doErr
	}
	return kp, err
}

type Status struct {
	State      string            `json:"state"`
	LocalAddr  string            `json:"local_addr"`
	ListenAddr string            `json:"listen_addr"`
	PeerAddr   string            `json:"peer_addr,omitempty"`
	LocalKey   *toyrsa.PublicKey `json:"local_key,omitempty"`
	RemoteKey  *toyrsa.PublicKey `json:"remote_key,omitempty"`
}

func (s *Server) Status() Status {
	var st Status
	s.do(func() {
		st = Status{
			State:     s.session.State().String(),
			LocalAddr: s.LocalAddr,
			PeerAddr:  s.session.PeerAddr(),
		}
		if addr := s.transport.Addr(); addr != nil {
			st.ListenAddr = addr.String()
		}
		if kp := s.session.LocalKeys(); kp != nil {
			pub := kp.Public
			st.LocalKey = &pub
		}
		if key, ok := s.session.RemoteKey(); ok {
			st.RemoteKey = &key
		}
	})
	return st
}

// LocalKeys returns the current key pair, or ErrNoLocalKeys.
func (s *Server) LocalKeys() (*toyrsa.KeyPair, error) {
	var kp *toyrsa.KeyPair
	if err := s.do(func() { kp = s.session.LocalKeys() }); err != nil {
		return nil, err
	}
	if kp == nil {
		return nil, ErrNoLocalKeys
	}
	return kp, nil
}

// Stop closes the connection, removes key material and stops the loop.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.do(func() {
			s.listening = false
			s.closePeer(nil)
		})
		s.transport.Close()
		close(s.quitch)
		logrus.Info("peerchat server stopped")
	})
}

func (s *Server) do(f func()) error {
	done := make(chan struct{})
	select {
	case s.cmdch <- func() {
		defer close(done)
		f()
	}:
	case <-s.quitch:
		return ErrServerStopped
	}
	<-done
	return nil
}

func (s *Server) loop() {
	for {
		select {
		case peer := <-s.addPeer:
			s.handleNewPeer(peer)
		case ev := <-s.eventch:
			s.handleEvent(ev)
		case f := <-s.cmdch:
			f()
		case <-s.quitch:
			if s.peer != nil {
				s.peer.Close()
			}
			return
		}
	}
}

func (s *Server) handleNewPeer(peer *Peer) {
	if s.peer != nil {
		logrus.WithFields(logrus.Fields{
			"old": s.peer.Addr(),
			"new": peer.Addr(),
		}).Info("replacing active connection")
		s.peer.Close()
		s.peer = nil
	}
	peer.writeTimeout = s.DialTimeout
	s.peer = peer
	s.session.Attach(peer.Send)
	go peer.ReadLoop(s.eventch, s.quitch)

	s.session.Handle(Event{Kind: EventConnected, PeerAddr: peer.Addr()})
	logrus.WithFields(logrus.Fields{
		"peer_addr": peer.Addr(),
		"outbound":  peer.outbound,
	}).Info("peer connected")

	if s.syncPeer() {
		return
	}
	s.armKeyTimer()
}

func (s *Server) handleEvent(ev peerEvent) {
	if ev.peer != s.peer {
		return
	}
	s.session.Handle(ev.Event)
	s.syncPeer()
}

// syncPeer drops the connection once the session has closed, and reports
// whether it did.
func (s *Server) syncPeer() bool {
	if s.session.State() != StateClosed {
		return false
	}
	if s.peer != nil {
		s.peer.Close()
		s.peer = nil
	}
	s.relisten()
	return true
}

func (s *Server) closePeer(err error) {
	if s.peer != nil {
		s.peer.Close()
		s.peer = nil
	}
	s.session.Close(err)
	s.relisten()
}

func (s *Server) relisten() {
	s.stopKeyTimer()
	if s.listening {
		s.session.Listen()
	} else {
		s.session.Reset()
	}
}

func (s *Server) armKeyTimer() {
	s.stopKeyTimer()
	if s.KeyExchangeTimeout <= 0 {
		return
	}
	s.keySeq++
	seq := s.keySeq
	s.keyTimer = time.AfterFunc(s.KeyExchangeTimeout, func() {
		s.do(func() {
			if seq != s.keySeq || s.session.State() != StateKeyPending {
				return
			}
			logrus.Warn("no key announcement from peer, closing")
			s.closePeer(ErrKeyExchangeTimedOut)
		})
	})
}

func (s *Server) stopKeyTimer() {
	if s.keyTimer != nil {
		s.keyTimer.Stop()
		s.keyTimer = nil
	}
	s.keySeq++
}
