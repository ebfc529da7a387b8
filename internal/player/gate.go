package player

import "sync"

// Gate is the one-time locked -> revealed transition gating first user
// interaction. Revealing runs the configured side effect exactly once;
// there is no reverse transition. The reveal is the only user gesture
// in the system and therefore the only point at which autoplay-gated
// playback may legitimately start.
type Gate struct {
	mu       sync.Mutex
	revealed bool
	onReveal func()
}

// NewGate creates a locked gate. onReveal typically attaches a
// transport and requests playback; it may be nil.
func NewGate(onReveal func()) *Gate {
	return &Gate{onReveal: onReveal}
}

// Reveal unlocks the gate. Repeated calls are no-ops.
func (g *Gate) Reveal() {
	g.mu.Lock()
	if g.revealed {
		g.mu.Unlock()
		return
	}
	g.revealed = true
	fn := g.onReveal
	g.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Revealed reports whether the gate has been unlocked.
func (g *Gate) Revealed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.revealed
}
