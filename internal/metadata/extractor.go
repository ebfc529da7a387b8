package metadata

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// SongInfo is what an uploaded track contributes to the profile: a
// title and artist to prefill the player card, and a duration for
// display.
type SongInfo struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration int    `json:"duration"` // seconds, 0 when unknown
}

// Extractor reads tags and durations from uploaded audio files.
type Extractor struct {
	supportedFormats []string
	logger           *logrus.Logger
}

// NewExtractor creates an extractor for the given audio extensions.
func NewExtractor(supportedFormats []string, logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Extractor{
		supportedFormats: supportedFormats,
		logger:           logger,
	}
}

// ExtractFromFile reads song info from an audio file. Failures degrade:
// a missing tag falls back to the file name, an unreadable duration to
// zero. The error return is reserved for an unopenable file.
func (e *Extractor) ExtractFromFile(filePath string) (SongInfo, error) {
	start := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		e.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open audio file")
		return SongInfo{}, err
	}
	defer file.Close()

	duration, err := e.calculateDuration(filePath)
	if err != nil {
		e.logger.WithError(err).WithField("file_path", filePath).Warn("Failed to calculate duration, setting to 0")
		duration = 0
	}

	info := SongInfo{
		Title:    strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)),
		Artist:   "Unknown Artist",
		Duration: duration,
	}

	meta, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.WithError(err).WithField("file_path", filePath).Warn("Failed to read tags, using filename")
		return info, nil
	}

	if title := meta.Title(); title != "" {
		info.Title = title
	}
	if artist := meta.Artist(); artist != "" {
		info.Artist = artist
	}

	e.logger.WithFields(logrus.Fields{
		"file_path":       filePath,
		"title":           info.Title,
		"artist":          info.Artist,
		"duration":        info.Duration,
		"processing_time": time.Since(start),
	}).Debug("Extracted song info")

	return info, nil
}

// calculateDuration returns the duration of an audio file in seconds.
func (e *Extractor) calculateDuration(filePath string) (int, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		return e.durationMP3(filePath)
	case ".flac":
		return e.durationFLAC(filePath)
	case ".wav":
		return e.durationWAV(filePath)
	default:
		return 0, errors.New("unsupported format for duration")
	}
}

// MP3 duration by decoding frames; bitrate estimation only when no
// frame decodes at all.
func (e *Extractor) durationMP3(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return e.estimateFromFileSize(path, 192000) // assume 192 kbps
			}
			break // partial decode, use what we have
		}
		total += fr.Duration()
		frames++
	}
	return int(total.Seconds()), nil
}

// FLAC duration via the STREAMINFO metadata block.
func (e *Extractor) durationFLAC(path string) (int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	si := stream.Info
	if si.NSamples > 0 && si.SampleRate > 0 {
		return int(float64(si.NSamples)/float64(si.SampleRate) + 0.5), nil
	}
	return 0, errors.New("flac stream missing sample info")
}

// WAV duration from the header plus PCM byte count.
func (e *Extractor) durationWAV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, errors.New("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, errors.New("invalid wav header")
	}

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	pcmBytes := st.Size() - 44 // canonical header size
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	bytesPerFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerFrame <= 0 {
		return 0, errors.New("invalid sample frame size")
	}
	secs := float64(pcmBytes/bytesPerFrame) / float64(dec.SampleRate)
	return int(secs + 0.5), nil
}

// estimateFromFileSize is the last resort when frame parsing fails.
func (e *Extractor) estimateFromFileSize(path string, bitrate int) (int, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if bitrate <= 0 {
		return 0, errors.New("invalid bitrate")
	}
	return int((st.Size() * 8) / int64(bitrate)), nil
}

// IsAudioFile checks if a file has a supported audio extension.
func (e *Extractor) IsAudioFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range e.supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// GetContentType returns the MIME type for an audio file.
func (e *Extractor) GetContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
