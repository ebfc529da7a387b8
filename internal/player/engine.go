package player

// EventKind identifies a playback engine notification.
type EventKind int

const (
	EventPlay EventKind = iota
	EventPause
	EventTimeUpdate
	EventLoadedMetadata
	EventEnded
	EventVolumeChange
)

// Event is a notification delivered by the playback engine. Only the
// fields relevant to the kind are meaningful: position/duration for
// time updates, duration for loaded metadata, volume/muted for volume
// changes.
type Event struct {
	Kind     EventKind `json:"kind"`
	Position float64   `json:"position"` // seconds
	Duration float64   `json:"duration"` // seconds
	Volume   float64   `json:"volume"`   // 0.0 to 1.0
	Muted    bool      `json:"muted"`
}

// Snapshot is the engine's current status, read at attach time so a
// transport can mount late onto already-playing audio.
type Snapshot struct {
	Playing  bool
	Position float64
	Duration float64
	Volume   float64
	Muted    bool
}

// Engine is the authoritative playback resource a Transport mirrors.
// Commands are requests: their effect is observed through subsequent
// events, never assumed. Play may be rejected by the runtime (autoplay
// policy); that is a recoverable failure, not a fatal one.
type Engine interface {
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(volume float64)
	SetMuted(muted bool)

	Snapshot() Snapshot
	Events() <-chan Event
}
