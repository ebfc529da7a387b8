package player

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the displayed transport state. It is a reflection of the
// engine, not a prediction of issued commands: every transition is
// driven by an inbound engine event.
type State struct {
	Attached    bool      `json:"attached"`
	IsPlaying   bool      `json:"isPlaying"`
	CurrentTime float64   `json:"currentTime"` // seconds
	Duration    float64   `json:"duration"`    // seconds
	Volume      float64   `json:"volume"`      // 0.0 to 1.0
	IsMuted     bool      `json:"isMuted"`
	Progress    float64   `json:"progress"` // 0 to 100, derived
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DisplayMuted reports whether the player should render as muted:
// either the mute flag is set or the volume is exactly zero.
func (s State) DisplayMuted() bool {
	return s.IsMuted || s.Volume == 0
}

// Transport presents and controls playback of one audio source. It owns
// the engine exclusively while attached and keeps displayed state
// consistent with the engine's own event delivery order.
type Transport struct {
	mu         sync.RWMutex
	engine     Engine
	state      State
	lastVolume float64 // last nonzero volume, restored on unmute
	listeners  []chan State
	done       chan struct{}

	logger *logrus.Logger
}

// NewTransport creates an unattached transport.
func NewTransport(logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{
		lastVolume: 1.0,
		listeners:  make([]chan State, 0),
		logger:     logger,
	}
}

// Attach binds the transport to an engine, initializing displayed state
// from the engine's current status (supports mounting onto audio that
// is already playing), and starts consuming its events.
func (t *Transport) Attach(engine Engine) error {
	t.mu.Lock()
	if t.engine != nil {
		t.mu.Unlock()
		return fmt.Errorf("transport already attached")
	}

	snap := engine.Snapshot()
	t.engine = engine
	t.done = make(chan struct{})
	t.state = State{
		Attached:    true,
		IsPlaying:   snap.Playing,
		CurrentTime: sanitize(snap.Position),
		Duration:    sanitize(snap.Duration),
		Volume:      clampVolume(snap.Volume),
		IsMuted:     snap.Muted,
		Progress:    progressOf(snap.Position, snap.Duration),
		UpdatedAt:   time.Now(),
	}
	if v := clampVolume(snap.Volume); v > 0 {
		t.lastVolume = v
	}
	done := t.done
	t.notifyLocked()
	t.mu.Unlock()

	go t.consume(engine.Events(), done)
	return nil
}

// Detach unbinds the transport. No event is applied afterward, so a
// notification already in flight cannot act on torn-down state.
func (t *Transport) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.engine == nil {
		return
	}
	close(t.done)
	t.engine = nil
	t.state = State{UpdatedAt: time.Now()}
	t.notifyLocked()
}

// TogglePlay requests play when displayed-paused and pause when
// displayed-playing. The result is observed asynchronously through
// engine events. A rejected play request (autoplay policy) is logged
// and swallowed; displayed state simply stays paused.
func (t *Transport) TogglePlay() {
	t.mu.RLock()
	engine := t.engine
	playing := t.state.IsPlaying
	t.mu.RUnlock()

	if engine == nil {
		return
	}
	if playing {
		engine.Pause()
		return
	}
	if err := engine.Play(); err != nil {
		t.logger.WithError(err).Warn("Play request rejected by engine")
	}
}

// Seek requests a jump to percent/100 of the duration. With an unknown
// duration the call is a guarded no-op; NaN never reaches the engine or
// the displayed state.
func (t *Transport) Seek(percent float64) {
	t.mu.RLock()
	engine := t.engine
	duration := t.state.Duration
	t.mu.RUnlock()

	if engine == nil || duration <= 0 || math.IsNaN(duration) {
		return
	}
	if math.IsNaN(percent) {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	engine.Seek(percent / 100 * duration)
}

// SetVolume sets the output level. Setting exactly zero renders as
// muted (State.DisplayMuted) even though no mute flag is toggled.
func (t *Transport) SetVolume(volume float64) {
	volume = clampVolume(volume)

	t.mu.Lock()
	engine := t.engine
	if volume > 0 {
		t.lastVolume = volume
	}
	t.mu.Unlock()

	if engine == nil {
		return
	}
	engine.SetVolume(volume)
}

// ToggleMute flips the displayed mute. Unmuting from a zero volume
// restores the last nonzero volume rather than leaving silence.
func (t *Transport) ToggleMute() {
	t.mu.RLock()
	engine := t.engine
	displayMuted := t.state.DisplayMuted()
	volume := t.state.Volume
	lastVolume := t.lastVolume
	t.mu.RUnlock()

	if engine == nil {
		return
	}
	if displayMuted {
		engine.SetMuted(false)
		if volume == 0 {
			engine.SetVolume(lastVolume)
		}
		return
	}
	engine.SetMuted(true)
}

// State returns a copy of the displayed state.
func (t *Transport) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Subscribe adds a listener for state changes.
func (t *Transport) Subscribe() <-chan State {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan State, 10) // buffered so a slow listener can't block events
	t.listeners = append(t.listeners, ch)
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (t *Transport) Unsubscribe(ch <-chan State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, listener := range t.listeners {
		if listener == ch {
			close(listener)
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			break
		}
	}
}

// consume applies engine events until the attachment is torn down.
func (t *Transport) consume(events <-chan Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.apply(ev, done)
		}
	}
}

// apply folds one engine event into displayed state. Events racing a
// Detach are dropped.
func (t *Transport) apply(ev Event, done <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-done:
		return
	default:
	}
	if t.engine == nil {
		return
	}

	switch ev.Kind {
	case EventPlay:
		t.state.IsPlaying = true
	case EventPause:
		t.state.IsPlaying = false
	case EventTimeUpdate:
		t.state.CurrentTime = sanitize(ev.Position)
		if d := sanitize(ev.Duration); d > 0 {
			t.state.Duration = d
		}
		t.state.Progress = progressOf(t.state.CurrentTime, t.state.Duration)
	case EventLoadedMetadata:
		t.state.Duration = sanitize(ev.Duration)
		t.state.Progress = progressOf(t.state.CurrentTime, t.state.Duration)
	case EventEnded:
		// Transport resets to paused at zero; volume and mute are
		// untouched. Engine-side looping never fires this event.
		t.state.IsPlaying = false
		t.state.CurrentTime = 0
		t.state.Progress = 0
	case EventVolumeChange:
		t.state.Volume = clampVolume(ev.Volume)
		t.state.IsMuted = ev.Muted
		if t.state.Volume > 0 {
			t.lastVolume = t.state.Volume
		}
	}
	t.state.UpdatedAt = time.Now()
	t.notifyLocked()
}

// notifyLocked sends state updates to all subscribers (must be called
// with the lock held).
func (t *Transport) notifyLocked() {
	for i := 0; i < len(t.listeners); i++ {
		select {
		case t.listeners[i] <- t.state:
		default:
			// Channel is full or abandoned, drop the listener
			close(t.listeners[i])
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			i--
		}
	}
}

// FormatTime renders seconds as m:ss. Malformed values (NaN, infinite,
// negative) render as "0:00" instead of propagating.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// progressOf derives the 0-100 progress, treating an unknown duration
// as zero progress rather than dividing by it.
func progressOf(position, duration float64) float64 {
	position = sanitize(position)
	duration = sanitize(duration)
	if duration <= 0 {
		return 0
	}
	p := position / duration * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// sanitize normalizes malformed numeric state to zero.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// clampVolume bounds a volume into [0, 1].
func clampVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
