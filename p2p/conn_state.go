package p2p

type ConnState int32

const (
	StateIdle ConnState = iota
	StateListening
	StateConnecting
	StateKeyPending
	StateReady
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateConnecting:
		return "CONNECTING"
	case StateKeyPending:
		return "KEY-PENDING"
	case StateReady:
		return "READY"
	case StateClosed:
		return "CLOSED"
	default:
		return "INVALID"
	}
}

// Connected reports whether a transport connection is up.
func (s ConnState) Connected() bool {
	return s == StateKeyPending || s == StateReady
}

type EventKind byte

const (
	EventConnected EventKind = iota
	EventDataReceived
	EventDisconnected
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "CONNECTED"
	case EventDataReceived:
		return "DATA"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventError:
		return "ERROR"
	default:
		return "INVALID"
	}
}

// Event is what a transport reports to a Session.
type Event struct {
	Kind     EventKind
	PeerAddr string // set on EventConnected
	Data     []byte // set on EventDataReceived
	Err      error  // set on EventError
}
