package chatflow

// State is the position of one chat in a multi-step command. The bot asks a
// question (/register, /edit, /set_gas) and the next free-text message from
// that chat is interpreted according to the state.
type State int

const (
	// StateIdle means no input is expected; free-text messages are ignored.
	StateIdle State = iota

	// StateAwaitingAddress expects the Bitcoin address for a registration.
	StateAwaitingAddress

	// StateAwaitingEdit expects the replacement Bitcoin address.
	StateAwaitingEdit

	// StateAwaitingThreshold expects the integer fee threshold in sat/vB.
	StateAwaitingThreshold
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAddress:
		return "awaiting_address"
	case StateAwaitingEdit:
		return "awaiting_edit"
	case StateAwaitingThreshold:
		return "awaiting_threshold"
	default:
		return "unknown"
	}
}
