package audio

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000
	FrameSamples     = 4096
)

var ErrInvalidPCM = errors.New("invalid pcm payload")

// Blob is an encoded audio payload ready for the realtime link.
type Blob struct {
	Data       []byte
	MimeType   string
	SampleRate int
}

func (b Blob) IsEmpty() bool {
	return len(b.Data) == 0
}

func PCMMimeType(rate int) string {
	return "audio/pcm;rate=" + strconv.Itoa(rate)
}

// EncodeFrame converts float samples captured at InputSampleRate into the 16-bit
// little-endian PCM blob the realtime model expects. Empty input yields an empty Blob.
func EncodeFrame(samples []float32) Blob {
	if len(samples) == 0 {
		return Blob{}
	}
	return Blob{
		Data:       Int16ToPCMBytes(Float32ToInt16(samples)),
		MimeType:   PCMMimeType(InputSampleRate),
		SampleRate: InputSampleRate,
	}
}

// Chunk is a decoded block of model audio.
type Chunk struct {
	Samples    []int16
	SampleRate int
	Duration   time.Duration
}

func DecodeChunk(data []byte, sampleRate int) (Chunk, error) {
	if len(data) == 0 || len(data)%2 != 0 {
		return Chunk{}, ErrInvalidPCM
	}
	if sampleRate <= 0 {
		sampleRate = OutputSampleRate
	}

	samples := PCMBytesToInt16(data)
	return Chunk{
		Samples:    samples,
		SampleRate: sampleRate,
		Duration:   SamplesDuration(len(samples), sampleRate),
	}, nil
}

func SamplesDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// RateFromMimeType extracts the rate parameter of an "audio/pcm;rate=N" mime type.
func RateFromMimeType(mimeType string, fallback int) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(key, "rate") {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return fallback
}
