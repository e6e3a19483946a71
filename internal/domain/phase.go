package domain

type Phase int

const (
	Disconnected Phase = iota
	Connecting
	Connected
	Disconnecting
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// CanTransition reports whether from -> to is an edge of the session state machine.
func CanTransition(from, to Phase) bool {
	switch from {
	case Disconnected:
		return to == Connecting
	case Connecting:
		return to == Connected || to == Disconnected
	case Connected:
		return to == Disconnecting
	case Disconnecting:
		return to == Disconnected
	}
	return false
}
