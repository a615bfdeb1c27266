package p2p

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineBufferSplitsConcatenatedLines(t *testing.T) {
	var lb lineBuffer
	lines := lb.Feed([]byte("KEY:7:10403\nMSG:1,2\n"))
	assert.Equal(t, []string{"KEY:7:10403", "MSG:1,2"}, lines)
	assert.Nil(t, lb.pending)
}

func TestLineBufferKeepsPartialLine(t *testing.T) {
	var lb lineBuffer
	assert.Empty(t, lb.Feed([]byte("MSG:12,3")))
	assert.Empty(t, lb.Feed([]byte("4,")))
	assert.Equal(t, []string{"MSG:12,34,56"}, lb.Feed([]byte("56\nKEY:")))
	assert.Equal(t, []string{"KEY:3:33"}, lb.Feed([]byte("3:33\n")))
}

func TestLineBufferCRLFAndBlankLines(t *testing.T) {
	var lb lineBuffer
	lines := lb.Feed([]byte("KEY:3:33\r\n\n\r\nMSG:5\n"))
	assert.Equal(t, []string{"KEY:3:33", "MSG:5"}, lines)
}

func TestLineBufferDropsOversizedFragment(t *testing.T) {
	var lb lineBuffer
	assert.Empty(t, lb.Feed([]byte(strings.Repeat("9", maxPendingLine+1))))
	assert.Nil(t, lb.pending)
	assert.Equal(t, []string{"MSG:1"}, lb.Feed([]byte("MSG:1\n")))
}

func TestLineBufferReset(t *testing.T) {
	var lb lineBuffer
	lb.Feed([]byte("KEY:1"))
	lb.Reset()
	assert.Equal(t, []string{"MSG:2"}, lb.Feed([]byte("MSG:2\n")))
}
