package player

import "sync"

// Command is a transport request queued for the page to apply to its
// audio element. The server never assumes a command succeeded; it waits
// for the page to report the resulting events.
type Command struct {
	Kind  string  `json:"kind"` // play, pause, seek, volume, mute, unmute
	Value float64 `json:"value,omitempty"`
}

// RemoteEngine mirrors the audio element running in the visitor's
// browser. The page reports the element's events over HTTP (Report) and
// periodically drains queued commands (DrainCommands); the engine's
// snapshot always reflects the last reported status.
type RemoteEngine struct {
	mu       sync.Mutex
	snap     Snapshot
	events   chan Event
	commands []Command
}

// NewRemoteEngine creates an engine with the given initial volume.
func NewRemoteEngine(volume float64) *RemoteEngine {
	return &RemoteEngine{
		snap:   Snapshot{Volume: clampVolume(volume)},
		events: make(chan Event, 64),
	}
}

// Report feeds one element event into the engine. The snapshot is
// updated first so late attachments observe current status; the event
// is then delivered to the attached transport. If the buffer is full
// the oldest event is dropped in favor of the newest.
func (e *RemoteEngine) Report(ev Event) {
	e.mu.Lock()
	switch ev.Kind {
	case EventPlay:
		e.snap.Playing = true
	case EventPause:
		e.snap.Playing = false
	case EventTimeUpdate:
		e.snap.Position = sanitize(ev.Position)
		if d := sanitize(ev.Duration); d > 0 {
			e.snap.Duration = d
		}
	case EventLoadedMetadata:
		e.snap.Duration = sanitize(ev.Duration)
	case EventEnded:
		e.snap.Playing = false
		e.snap.Position = 0
	case EventVolumeChange:
		e.snap.Volume = clampVolume(ev.Volume)
		e.snap.Muted = ev.Muted
	}
	e.mu.Unlock()

	for {
		select {
		case e.events <- ev:
			return
		default:
			select {
			case <-e.events:
			default:
			}
		}
	}
}

// DrainCommands returns and clears the pending command queue.
func (e *RemoteEngine) DrainCommands() []Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmds := e.commands
	e.commands = nil
	return cmds
}

func (e *RemoteEngine) queue(cmd Command) {
	e.mu.Lock()
	e.commands = append(e.commands, cmd)
	e.mu.Unlock()
}

// Play queues a play request. Rejection by the browser runtime shows up
// as an absent play event, not as an error here.
func (e *RemoteEngine) Play() error {
	e.queue(Command{Kind: "play"})
	return nil
}

func (e *RemoteEngine) Pause() {
	e.queue(Command{Kind: "pause"})
}

func (e *RemoteEngine) Seek(seconds float64) {
	e.queue(Command{Kind: "seek", Value: sanitize(seconds)})
}

func (e *RemoteEngine) SetVolume(volume float64) {
	e.queue(Command{Kind: "volume", Value: clampVolume(volume)})
}

func (e *RemoteEngine) SetMuted(muted bool) {
	if muted {
		e.queue(Command{Kind: "mute"})
		return
	}
	e.queue(Command{Kind: "unmute"})
}

// Snapshot returns the last reported element status.
func (e *RemoteEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Events exposes the event stream consumed by the attached transport.
func (e *RemoteEngine) Events() <-chan Event {
	return e.events
}
