package tracking

import (
	"context"
	"crypto/subtle"
	"errors"
)

type State int

const (
	Locked State = iota
	Unlocking
	Unlocked
)

func (s State) String() string {
	switch s {
	case Unlocking:
		return "unlocking"
	case Unlocked:
		return "unlocked"
	default:
		return "locked"
	}
}

var (
	ErrInvalidFormat = errors.New("access code must be exactly 4 digits")
	ErrCodeMismatch  = errors.New("access code does not match")
	ErrUnknownToken  = errors.New("unknown tracking token")
)

// Reason maps a gate error to the code used in logs.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return "INVALID_FORMAT"
	case errors.Is(err, ErrCodeMismatch):
		return "CODE_MISMATCH"
	case errors.Is(err, ErrUnknownToken):
		return "UNKNOWN_TOKEN"
	default:
		return "ERROR"
	}
}

// CodeSource looks up the code currently stored for the friend owning a
// token. It returns ErrUnknownToken when no friend has that token.
type CodeSource interface {
	CurrentCode(ctx context.Context, token string) (friendID uint, code string, err error)
}

// Gate is the per-session unlock state for one tracking token. A Gate is
// not shared between sessions and not safe for concurrent use.
type Gate struct {
	token    string
	state    State
	friendID uint
}

func NewGate(token string) *Gate {
	return &Gate{token: token, state: Locked}
}

func (g *Gate) State() State { return g.state }

// FriendID is set once the gate is Unlocked.
func (g *Gate) FriendID() uint { return g.friendID }

// Submit validates code against the code stored right now for the gate's
// token. On any failure the gate returns to Locked. Once Unlocked, the gate
// stays Unlocked for the rest of the session.
func (g *Gate) Submit(ctx context.Context, code string, src CodeSource) error {
	if g.state == Unlocked {
		return nil
	}
	g.state = Unlocking

	if !ValidCodeFormat(code) {
		g.state = Locked
		return ErrInvalidFormat
	}
	if !ValidToken(g.token) {
		g.state = Locked
		return ErrUnknownToken
	}

	friendID, stored, err := src.CurrentCode(ctx, g.token)
	if err != nil {
		g.state = Locked
		return err
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		g.state = Locked
		return ErrCodeMismatch
	}

	g.state = Unlocked
	g.friendID = friendID
	return nil
}
