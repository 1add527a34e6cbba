package auth

import "fmt"

// State is a node of the authorization state machine.
//
//	NoToken ──valid or refreshed──────────────────────────▶ Authenticated
//	   │
//	   └─▶ AwaitingRedirect ─code─▶ ExchangingCode ─ok─▶ Authenticated
//	            ▲                        │
//	            └──── failed attempt ────┘   (budget spent) ─▶ Exhausted
type State int

const (
	StateNoToken State = iota
	StateAwaitingRedirect
	StateExchangingCode
	StateAuthenticated
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "NoToken"
	case StateAwaitingRedirect:
		return "AwaitingRedirect"
	case StateExchangingCode:
		return "ExchangingCode"
	case StateAuthenticated:
		return "Authenticated"
	case StateExhausted:
		return "Exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether the machine stops in s.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateExhausted
}
