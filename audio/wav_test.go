package audio

import (
	"encoding/base64"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(rate, channels, frames int) *PCM {
	samples := make([]int16, frames*channels)
	for i := range samples {
		samples[i] = int16((i % 200) * 100)
	}
	return &PCM{SampleRate: rate, Channels: channels, Samples: samples}
}

func TestParseWAVRoundTrip(t *testing.T) {
	in := tone(44100, 2, 4410)
	out, err := ParseWAV(EncodeWAV(in))
	require.NoError(t, err)
	assert.Equal(t, in.SampleRate, out.SampleRate)
	assert.Equal(t, in.Channels, out.Channels)
	assert.Equal(t, in.Samples, out.Samples)
	assert.Equal(t, 100*time.Millisecond, out.Duration())
}

func TestParseWAVSkipsUnknownChunks(t *testing.T) {
	raw := EncodeWAV(tone(16000, 1, 160))
	// splice an odd-sized LIST chunk (padded to even) between fmt and data
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	spliced := append(append(append([]byte{}, raw[:36]...), list...), raw[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	pcm, err := ParseWAV(spliced)
	require.NoError(t, err)
	assert.Len(t, pcm.Samples, 160)
}

func TestParseWAVRejects(t *testing.T) {
	valid := EncodeWAV(tone(16000, 1, 16))

	float := append([]byte{}, valid...)
	binary.LittleEndian.PutUint16(float[20:22], 3)

	eightBit := append([]byte{}, valid...)
	binary.LittleEndian.PutUint16(eightBit[34:36], 8)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"mp3", []byte("ID3\x03\x00\x00\x00\x00\x00\x00\x00\x00")},
		{"float format", float},
		{"8 bit", eightBit},
		{"no data chunk", valid[:36]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWAV(tt.data)
			assert.ErrorIs(t, err, ErrNotPCMWAV)
		})
	}
}

func TestResampleToMono16k(t *testing.T) {
	out := Resample(tone(48000, 2, 48000), TargetSampleRate)
	assert.Equal(t, TargetSampleRate, out.SampleRate)
	assert.Equal(t, 1, out.Channels)
	assert.Len(t, out.Samples, 16000)
	assert.Equal(t, time.Second, out.Duration())
}

func TestToMonoAverages(t *testing.T) {
	out := ToMono(&PCM{SampleRate: 8000, Channels: 2, Samples: []int16{100, 300, -200, 0}})
	assert.Equal(t, []int16{200, -100}, out.Samples)
}

func TestNewTrainingSample(t *testing.T) {
	// 1.2345 s at 22.05 kHz
	sample := NewTrainingSample(3, EncodeWAV(tone(22050, 1, 27221)))
	assert.Equal(t, 3, sample.Ordinal)
	assert.Equal(t, 1.23, sample.Duration)

	raw, err := base64.StdEncoding.DecodeString(sample.AudioBase64)
	require.NoError(t, err)
	pcm, err := ParseWAV(raw)
	require.NoError(t, err)
	assert.Equal(t, TargetSampleRate, pcm.SampleRate)
	assert.Equal(t, 1, pcm.Channels)
}

func TestNewTrainingSampleKeepsUnparseableAudio(t *testing.T) {
	raw := []byte("ID3 not really an mp3")
	sample := NewTrainingSample(1, raw)
	assert.Equal(t, base64.StdEncoding.EncodeToString(raw), sample.AudioBase64)
	assert.Zero(t, sample.Duration)
}

func TestLoadTrainingSamples(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, "phrase"+string(rune('1'+i))+".wav")
		require.NoError(t, os.WriteFile(path, EncodeWAV(tone(16000, 1, 16000)), 0o644))
		paths = append(paths, path)
	}

	samples, err := LoadTrainingSamples(paths)
	require.NoError(t, err)
	require.Len(t, samples, 5)
	for i, s := range samples {
		assert.Equal(t, i+1, s.Ordinal)
		assert.Equal(t, 1.0, s.Duration)
	}

	_, err = LoadTrainingSamples(append(paths, filepath.Join(dir, "missing.wav")))
	assert.ErrorContains(t, err, "sample 6")
}
