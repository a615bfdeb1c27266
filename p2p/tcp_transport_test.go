package p2p

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerSendTimesOutWhenPeerStopsReading(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	p := NewPeer(local, true)
	p.writeTimeout = 50 * time.Millisecond
	defer p.Close()

	start := time.Now()
	err := p.Send([]byte("MSG:1,2,3\n"))
	require.Error(t, err)
	var ne net.Error
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Timeout())
	assert.Less(t, time.Since(start), waitFor)
}

func TestPeerSendDelivers(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	p := NewPeer(local, false)
	p.writeTimeout = time.Second
	defer p.Close()

	go p.Send([]byte("KEY:7:10403\n"))
	line, err := bufio.NewReader(remote).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "KEY:7:10403\n", line)
}
