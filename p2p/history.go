package p2p

import (
	"fmt"
	"sync"
	"time"

	"github.com/RedPaladin7/peerchat/toyrsa"
)

const (
	SenderSystem = "System"
	SenderMe     = "Me"
	SenderPeer   = "Peer"

	defaultHistorySize = 500
)

type ChatEntry struct {
	Time   time.Time `json:"time"`
	From   string    `json:"from"`
	Text   string    `json:"text"`
	Cipher string    `json:"cipher,omitempty"`
}

// History is a bounded chat transcript. It implements Notifier so it can
// sit next to the log output.
type History struct {
	lock    sync.RWMutex
	limit   int
	entries []ChatEntry
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &History{limit: limit}
}

func (h *History) append(e ChatEntry) {
	h.lock.Lock()
	defer h.lock.Unlock()
	e.Time = time.Now()
	h.entries = append(h.entries, e)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]ChatEntry(nil), h.entries[over:]...)
	}
}

// Entries returns a copy of the transcript, oldest first.
func (h *History) Entries() []ChatEntry {
	h.lock.RLock()
	defer h.lock.RUnlock()
	out := make([]ChatEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.entries)
}

func (h *History) Status(text string) {
	h.append(ChatEntry{From: SenderSystem, Text: text})
}

func (h *History) KeysExchanged(peer string, key toyrsa.PublicKey) {
	h.append(ChatEntry{From: SenderSystem, Text: "Keys exchanged! You can now chat."})
}

func (h *History) Message(from, text string) {
	h.append(ChatEntry{From: from, Text: text})
}

func (h *History) Sent(text string, cipher toyrsa.Ciphertext) {
	h.append(ChatEntry{From: SenderMe, Text: text, Cipher: cipher.Join(",")})
}

func (h *History) Closed(peer string, err error) {
	if err != nil {
		h.append(ChatEntry{From: SenderSystem, Text: fmt.Sprintf("Error: %s", err)})
	}
	h.append(ChatEntry{From: SenderSystem, Text: "Peer disconnected. Keys deleted."})
}
