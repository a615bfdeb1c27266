package p2p

import (
	"bytes"

	"github.com/sirupsen/logrus"
)

const maxPendingLine = 64 * 1024

// lineBuffer splits a byte stream into lines, keeping an incomplete tail
// until the rest of it arrives.
type lineBuffer struct {
	pending []byte
}

func (lb *lineBuffer) Feed(data []byte) []string {
	lb.pending = append(lb.pending, data...)

	var lines []string
	for {
		i := bytes.IndexByte(lb.pending, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(lb.pending[:i], []byte{'\r'})
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
		lb.pending = lb.pending[i+1:]
	}

	if len(lb.pending) > maxPendingLine {
		logrus.WithFields(logrus.Fields{
			"size": len(lb.pending),
		}).Warn("dropping oversized partial line")
		lb.pending = nil
	}
	if len(lb.pending) == 0 {
		lb.pending = nil
	}
	return lines
}

func (lb *lineBuffer) Reset() {
	lb.pending = nil
}
