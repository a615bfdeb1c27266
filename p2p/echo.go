package p2p

import (
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EchoServer writes every byte it receives back to the sender. Pointing a
// client at it makes the client talk to itself, which is enough to see the
// key exchange and message path work end to end.
type EchoServer struct {
	listenAddr string

	lock     sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

func NewEchoServer(listenAddr string) *EchoServer {
	return &EchoServer{
		listenAddr: listenAddr,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Listen binds the listener; Addr is valid afterwards.
func (e *EchoServer) Listen() error {
	ln, err := net.Listen("tcp", e.listenAddr)
	if err != nil {
		return errors.Wrapf(err, "echo listen on %s", e.listenAddr)
	}
	e.lock.Lock()
	e.listener = ln
	e.lock.Unlock()
	logrus.WithFields(logrus.Fields{
		"addr": ln.Addr().String(),
	}).Info("echo server listening")
	return nil
}

func (e *EchoServer) Addr() net.Addr {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

// Serve accepts connections until Close is called.
func (e *EchoServer) Serve() error {
	e.lock.Lock()
	ln := e.listener
	e.lock.Unlock()
	if ln == nil {
		return errors.New("echo server not listening")
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.Wrap(err, "echo accept")
		}
		e.lock.Lock()
		e.conns[conn] = struct{}{}
		e.lock.Unlock()

		e.wg.Add(1)
		go e.echo(conn)
	}
}

func (e *EchoServer) ListenAndServe() error {
	if err := e.Listen(); err != nil {
		return err
	}
	return e.Serve()
}

func (e *EchoServer) echo(conn net.Conn) {
	defer e.wg.Done()
	defer func() {
		e.lock.Lock()
		delete(e.conns, conn)
		e.lock.Unlock()
		conn.Close()
	}()
	logrus.WithFields(logrus.Fields{
		"remote": conn.RemoteAddr().String(),
	}).Info("echo client connected")

	n, err := io.Copy(conn, conn)
	logrus.WithFields(logrus.Fields{
		"remote": conn.RemoteAddr().String(),
		"bytes":  n,
	}).Infof("echo client gone: %v", err)
}

func (e *EchoServer) Close() error {
	e.lock.Lock()
	var err error
	if e.listener != nil {
		err = e.listener.Close()
	}
	for c := range e.conns {
		c.Close()
	}
	e.lock.Unlock()
	e.wg.Wait()
	return err
}
