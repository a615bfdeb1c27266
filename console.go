package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/RedPaladin7/peerchat/p2p"
	"github.com/RedPaladin7/peerchat/toyrsa"
	"github.com/sirupsen/logrus"
)

const consoleHelp = `Commands:
  /keys                 generate a new key pair
  /connect host:port    connect to a peer
  /disconnect           close the connection and delete keys
  /status               show connection state
  /quit                 exit
Anything else is sent to the peer.`

// consoleNotifier prints chat lines the way the desktop chat page shows them.
type consoleNotifier struct {
	out io.Writer
}

func (c consoleNotifier) Status(text string) {
	fmt.Fprintf(c.out, "[%s] %s\n", p2p.SenderSystem, text)
}

func (c consoleNotifier) KeysExchanged(peer string, key toyrsa.PublicKey) {
	fmt.Fprintf(c.out, "[%s] Keys exchanged with %s %s! You can now chat.\n", p2p.SenderSystem, peer, key)
}

func (c consoleNotifier) Message(from, text string) {
	fmt.Fprintf(c.out, "[%s] %s\n", from, text)
}

func (c consoleNotifier) Sent(text string, cipher toyrsa.Ciphertext) {
	fmt.Fprintf(c.out, "[%s] %s\n  [Length: %d]\n  [Cipher: %s]\n", p2p.SenderMe, text, len(cipher), cipher.Join(","))
}

func (c consoleNotifier) Closed(peer string, err error) {
	if err != nil {
		fmt.Fprintf(c.out, "[%s] Error: %s\n", p2p.SenderSystem, err)
	}
	fmt.Fprintf(c.out, "[%s] Peer disconnected. Keys deleted.\n", p2p.SenderSystem)
}

// runConsole closes quit on /quit. End of input only stops reading, so a
// detached process keeps serving the API.
func runConsole(server *p2p.Server, in io.Reader, out io.Writer, quit chan<- struct{}) {
	fmt.Fprintln(out, consoleHelp)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !handleConsoleLine(server, line, out) {
			close(quit)
			return
		}
	}
	if err := sc.Err(); err != nil {
		logrus.Errorf("console read error: %s", err)
	}
}

// handleConsoleLine runs one console line and reports whether to keep going.
func handleConsoleLine(server *p2p.Server, line string, out io.Writer) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		fmt.Fprintln(out, consoleHelp)
	case "/keys":
		kp, err := server.GenerateKeys()
		if err != nil {
			fmt.Fprintf(out, "[%s] Error: %s\n", p2p.SenderSystem, err)
			break
		}
		fmt.Fprintf(out, "[%s] Keys generated! n=%d, e=%d, d=%d\n", p2p.SenderSystem, kp.Public.N, kp.Public.E, kp.Private.D)
	case "/connect":
		addr := strings.TrimSpace(arg)
		if addr == "" {
			fmt.Fprintf(out, "[%s] usage: /connect host:port\n", p2p.SenderSystem)
			break
		}
		go func() {
			if err := server.Connect(addr); err != nil {
				fmt.Fprintf(out, "[%s] Error: %s\n", p2p.SenderSystem, err)
			}
		}()
	case "/disconnect":
		if err := server.Disconnect(); err != nil {
			fmt.Fprintf(out, "[%s] Error: %s\n", p2p.SenderSystem, err)
		}
	case "/status":
		st := server.Status()
		fmt.Fprintf(out, "[%s] state=%s local=%s listen=%s peer=%s\n", p2p.SenderSystem, st.State, st.LocalAddr, st.ListenAddr, st.PeerAddr)
	default:
		if _, err := server.Send(line); err != nil {
			fmt.Fprintf(out, "[%s] Not sent: %s\n", p2p.SenderSystem, err)
		}
	}
	return true
}
