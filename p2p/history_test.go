package p2p

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/RedPaladin7/peerchat/toyrsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecordsChat(t *testing.T) {
	h := NewHistory(10)
	h.Status("Connecting to 10.0.0.2:12345...")
	h.KeysExchanged("10.0.0.2", toyrsa.PublicKey{E: 7, N: 10403})
	h.Sent("hi", toyrsa.Ciphertext{1, 2})
	h.Message(SenderPeer, "hello")
	h.Closed("10.0.0.2", errors.New("reset"))

	entries := h.Entries()
	require.Len(t, entries, 6)
	assert.Equal(t, SenderMe, entries[2].From)
	assert.Equal(t, "1,2", entries[2].Cipher)
	assert.Equal(t, ChatEntry{From: SenderPeer, Text: "hello"}, ChatEntry{From: entries[3].From, Text: entries[3].Text})
	assert.Equal(t, "Error: reset", entries[4].Text)
	assert.Equal(t, "Peer disconnected. Keys deleted.", entries[5].Text)
	assert.False(t, entries[5].Time.IsZero())
}

func TestHistoryIsBounded(t *testing.T) {
	h := NewHistory(3)
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		h.Message(SenderPeer, text)
	}
	require.Equal(t, 3, h.Len())
	var texts []string
	for _, e := range h.Entries() {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"c", "d", "e"}, texts)
}

func TestTranscriptSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	h := NewHistory(10)
	h.Message(SenderPeer, "first")
	h.Sent("second", toyrsa.Ciphertext{3})
	require.NoError(t, h.SaveTranscript(path, "10.0.0.1"))

	small := NewHistory(1)
	tr, err := small.LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", tr.LocalAddr)
	assert.Len(t, tr.Entries, 2)

	entries := small.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].Text)

	_, err = small.LoadTranscript(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
