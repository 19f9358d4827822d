package notify

// PushToken is a device registration token as accepted by the push gateway.
// Tokens come from clients and are stored opaquely, so every send filters
// them through Valid first.
type PushToken string

const (
	minTokenLen = 32
	maxTokenLen = 4096
)

// Valid reports whether the token matches the gateway's token grammar:
// printable ASCII, no whitespace, bounded length.
func (t PushToken) Valid() bool {
	if len(t) < minTokenLen || len(t) > maxTokenLen {
		return false
	}
	for i := 0; i < len(t); i++ {
		c := t[i]
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
