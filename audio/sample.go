package audio

import (
	"encoding/base64"
	"fmt"
	"math"
	"os"

	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/types"
)

// Normalize converts a PCM WAV recording to 16 kHz mono. ok is false when raw is not a
// PCM WAV file, in which case raw is returned unchanged with a zero duration.
func Normalize(raw []byte) (wav []byte, seconds float64, ok bool) {
	pcm, err := ParseWAV(raw)
	if err != nil {
		return raw, 0, false
	}
	pcm = Resample(ToMono(pcm), TargetSampleRate)
	return EncodeWAV(pcm), roundSeconds(pcm.Duration().Seconds()), true
}

// NewTrainingSample builds the enrollment sample for phrase ordinal (1-based).
func NewTrainingSample(ordinal int, raw []byte) types.TrainingSample {
	wav, seconds, ok := Normalize(raw)
	if !ok {
		tool.DefaultLogger.Warnf("[Audio] Sample %d is not PCM WAV, sending it unconverted", ordinal)
	}
	return types.TrainingSample{
		Ordinal:     ordinal,
		AudioBase64: base64.StdEncoding.EncodeToString(wav),
		Duration:    seconds,
	}
}

// LoadTrainingSamples reads the recordings in phrase order.
func LoadTrainingSamples(paths []string) ([]types.TrainingSample, error) {
	samples := make([]types.TrainingSample, 0, len(paths))
	for i, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read sample %d: %v", i+1, err)
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("sample %d is empty", i+1)
		}
		samples = append(samples, NewTrainingSample(i+1, raw))
	}
	return samples, nil
}

// NewVerificationRequest encodes one recording for speaker verification.
func NewVerificationRequest(filename, source string, raw []byte) types.VoiceVerificationRequest {
	wav, seconds, _ := Normalize(raw)
	return types.VoiceVerificationRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(wav),
		Source:      source,
		Duration:    seconds,
		Filename:    filename,
	}
}

func roundSeconds(s float64) float64 {
	return math.Round(s*100) / 100
}
