package navigation

// AIMessage is the pilot-facing reason an autopilot command gave up
type AIMessage string

const (
	AIMessageNone              AIMessage = "NONE"
	AIMessageGravityTooHigh    AIMessage = "GRAVITY_TOO_HIGH"
	AIMessagePermissionRefused AIMessage = "PERMISSION_REFUSED"
	AIMessageOrbitImpossible   AIMessage = "ORBIT_IMPOSSIBLE"
)

// Describe returns the text shown to the pilot
func (m AIMessage) Describe() string {
	switch m {
	case AIMessageGravityTooHigh:
		return "Insufficient thrust to counter local gravity"
	case AIMessagePermissionRefused:
		return "Docking permission refused"
	case AIMessageOrbitImpossible:
		return "Requested orbit lies outside the body's sphere of influence"
	default:
		return ""
	}
}

// AIMessageLatch holds the most recent message until it is taken.
// The zero value holds AIMessageNone.
type AIMessageLatch struct {
	msg AIMessage
}

// Peek returns the latched message without clearing it
func (l *AIMessageLatch) Peek() AIMessage {
	if l.msg == "" {
		return AIMessageNone
	}
	return l.msg
}

// Swap latches next and returns the previous message
func (l *AIMessageLatch) Swap(next AIMessage) AIMessage {
	prev := l.Peek()
	l.msg = next
	return prev
}
