package p2p

import (
	"encoding/json"
	"os"
)

type Transcript struct {
	LocalAddr string      `json:"local_addr"`
	Entries   []ChatEntry `json:"entries"`
}

func (h *History) SaveTranscript(filename, localAddr string) error {
	snapshot := Transcript{
		LocalAddr: localAddr,
		Entries:   h.Entries(),
	}
	data, err := json.MarshalIndent(snapshot, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func (h *History) LoadTranscript(filename string) (*Transcript, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var snapshot Transcript
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	h.lock.Lock()
	defer h.lock.Unlock()

	h.entries = snapshot.Entries
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
	return &snapshot, nil
}
