// Package detail holds the company detail overlay: its open/close
// lifecycle and the full detail projection it renders.
package detail

import (
	"time"

	"github.com/sells-group/discovery-cli/pkg/discovery"
)

// Phase is the overlay lifecycle phase.
type Phase int

const (
	Closed Phase = iota
	Opening
	Open
	Closing
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Default animation durations.
const (
	DefaultOpenDuration  = 150 * time.Millisecond
	DefaultCloseDuration = 150 * time.Millisecond
)

// Token identifies one scheduled transition. Only the token of the most
// recent transition can advance the overlay.
type Token uint64

// Transition is a timer the owner must schedule: after After elapses it
// calls Advance with Token.
type Transition struct {
	Token Token
	After time.Duration
}

// Overlay is the detail overlay state machine. It is not safe for
// concurrent use.
type Overlay struct {
	phase    Phase
	company  discovery.Company
	token    Token
	openDur  time.Duration
	closeDur time.Duration
}

// NewOverlay returns a closed overlay. Negative durations are treated as
// zero.
func NewOverlay(openDur, closeDur time.Duration) *Overlay {
	return &Overlay{openDur: max(openDur, 0), closeDur: max(closeDur, 0)}
}

// Open selects c and starts the entry animation. Opening while already
// mounted switches the subject and restarts the animation.
func (o *Overlay) Open(c discovery.Company) Transition {
	o.company = c
	o.phase = Opening
	return o.next(o.openDur)
}

// Close starts the exit animation. Escape, outside clicks and the close
// control all come through here. It returns false when the overlay is
// already closed or closing.
func (o *Overlay) Close() (Transition, bool) {
	if o.phase == Closed || o.phase == Closing {
		return Transition{}, false
	}
	o.phase = Closing
	return o.next(o.closeDur), true
}

// Advance completes the transition identified by t. Opening becomes Open;
// Closing becomes Closed, unmounting the overlay and clearing the
// selection. Stale tokens are ignored and Advance returns false.
func (o *Overlay) Advance(t Token) bool {
	if t != o.token {
		return false
	}
	switch o.phase {
	case Opening:
		o.phase = Open
	case Closing:
		o.phase = Closed
		o.company = discovery.Company{}
	default:
		return false
	}
	return true
}

// Refresh replaces the subject with a newer copy of the same company, for
// example after the list reloads. Other companies are ignored.
func (o *Overlay) Refresh(c discovery.Company) {
	if o.Mounted() && o.company.ID == c.ID {
		o.company = c
	}
}

func (o *Overlay) next(d time.Duration) Transition {
	o.token++
	return Transition{Token: o.token, After: d}
}

// Phase returns the lifecycle phase.
func (o *Overlay) Phase() Phase { return o.phase }

// Mounted reports whether the overlay is on screen in any phase.
func (o *Overlay) Mounted() bool { return o.phase != Closed }

// Interactive reports whether the overlay accepts input. Input is
// accepted from the moment it starts opening until it starts closing.
func (o *Overlay) Interactive() bool { return o.phase == Opening || o.phase == Open }

// Subject returns the selected company while mounted.
func (o *Overlay) Subject() (discovery.Company, bool) {
	if !o.Mounted() {
		return discovery.Company{}, false
	}
	return o.company, true
}
