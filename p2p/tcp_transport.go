package p2p

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const readBufferSize = 4096

type Peer struct {
	conn     net.Conn
	outbound bool
	addr     string

	// writeTimeout bounds each Send; zero means no deadline.
	writeTimeout time.Duration
}

func NewPeer(conn net.Conn, outbound bool) *Peer {
	return &Peer{
		conn:     conn,
		outbound: outbound,
		addr:     peerHost(conn.RemoteAddr()),
	}
}

func (p *Peer) Addr() string { return p.addr }

func (p *Peer) Send(b []byte) error {
	if p.writeTimeout > 0 {
		if err := p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil {
			return errors.Wrap(err, "set write deadline")
		}
	}
	_, err := p.conn.Write(b)
	return err
}

func (p *Peer) Close() error {
	return p.conn.Close()
}

type peerEvent struct {
	peer *Peer
	Event
}

// ReadLoop reports every chunk read from the connection, then one
// Disconnected or Error event, and returns.
func (p *Peer) ReadLoop(eventch chan<- peerEvent, quitch <-chan struct{}) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !p.report(eventch, quitch, Event{Kind: EventDataReceived, Data: data}) {
				return
			}
		}
		if err != nil {
			ev := Event{Kind: EventDisconnected}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				ev = Event{Kind: EventError, Err: err}
			}
			p.report(eventch, quitch, ev)
			return
		}
	}
}

func (p *Peer) report(eventch chan<- peerEvent, quitch <-chan struct{}, ev Event) bool {
	select {
	case eventch <- peerEvent{peer: p, Event: ev}:
		return true
	case <-quitch:
		return false
	}
}

type TCPTransport struct {
	listenAddr string
	AddPeer    chan *Peer

	lock     sync.Mutex
	listener net.Listener
}

func NewTCPTransport(listenAddr string) *TCPTransport {
	return &TCPTransport{
		listenAddr: listenAddr,
	}
}

func (t *TCPTransport) Listen() error {
	ln, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", t.listenAddr)
	}
	t.lock.Lock()
	t.listener = ln
	t.lock.Unlock()
	return nil
}

func (t *TCPTransport) Addr() net.Addr {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// AcceptLoop hands every inbound connection to AddPeer until the listener
// is closed or quitch fires.
func (t *TCPTransport) AcceptLoop(quitch <-chan struct{}) {
	t.lock.Lock()
	ln := t.listener
	t.lock.Unlock()
	if ln == nil {
		return
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logrus.Errorf("accept error: %s", err)
			}
			return
		}
		peer := NewPeer(conn, false)
		logrus.WithFields(logrus.Fields{
			"remote": conn.RemoteAddr().String(),
		}).Info("incoming connection")

		select {
		case t.AddPeer <- peer:
		case <-quitch:
			conn.Close()
			return
		}
	}
}

func (t *TCPTransport) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}
