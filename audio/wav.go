package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// TargetSampleRate is the rate the backend models expect.
const TargetSampleRate = 16000

var ErrNotPCMWAV = errors.New("not a 16-bit PCM WAV file")

// PCM is decoded 16-bit audio. Samples are interleaved when Channels > 1.
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames is the number of samples per channel.
func (p *PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

func (p *PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}

// ParseWAV decodes a RIFF/WAVE byte slice holding 16-bit PCM audio.
func ParseWAV(data []byte) (*PCM, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrNotPCMWAV)
	}

	pcm := &PCM{}
	var fmtFound bool
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if chunkSize < 0 || body+chunkSize > len(data) {
			// tolerate a truncated data chunk, common with streamed recordings
			if chunkID != "data" {
				return nil, fmt.Errorf("%w: chunk %q overruns file", ErrNotPCMWAV, chunkID)
			}
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("%w: invalid fmt chunk", ErrNotPCMWAV)
			}
			chunk := data[body : body+chunkSize]
			if format := binary.LittleEndian.Uint16(chunk[0:2]); format != 1 {
				return nil, fmt.Errorf("%w: unsupported audio format %d", ErrNotPCMWAV, format)
			}
			pcm.Channels = int(binary.LittleEndian.Uint16(chunk[2:4]))
			pcm.SampleRate = int(binary.LittleEndian.Uint32(chunk[4:8]))
			if bits := binary.LittleEndian.Uint16(chunk[14:16]); bits != 16 {
				return nil, fmt.Errorf("%w: unsupported bits per sample %d", ErrNotPCMWAV, bits)
			}
			if pcm.Channels <= 0 || pcm.SampleRate <= 0 {
				return nil, fmt.Errorf("%w: invalid channel count or sample rate", ErrNotPCMWAV)
			}
			fmtFound = true
		case "data":
			if !fmtFound {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrNotPCMWAV)
			}
			chunk := data[body : body+chunkSize]
			pcm.Samples = make([]int16, len(chunk)/2)
			for i := range pcm.Samples {
				pcm.Samples[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
			}
			return pcm, nil
		}

		// chunks are word aligned
		offset = body + chunkSize + chunkSize%2
	}
	return nil, fmt.Errorf("%w: missing data chunk", ErrNotPCMWAV)
}

// EncodeWAV writes p as a canonical 44-byte-header WAV file.
func EncodeWAV(p *PCM) []byte {
	dataLen := uint32(len(p.Samples) * 2)
	blockAlign := uint16(p.Channels * 2)

	var buf bytes.Buffer
	buf.Grow(44 + int(dataLen))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(p.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(p.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(p.SampleRate)*uint32(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	_ = binary.Write(&buf, binary.LittleEndian, p.Samples)
	return buf.Bytes()
}

// ToMono averages interleaved channels into one.
func ToMono(p *PCM) *PCM {
	if p.Channels <= 1 {
		return p
	}
	frames := p.Frames()
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for ch := 0; ch < p.Channels; ch++ {
			sum += int(p.Samples[i*p.Channels+ch])
		}
		out[i] = int16(sum / p.Channels)
	}
	return &PCM{SampleRate: p.SampleRate, Channels: 1, Samples: out}
}

// Resample converts mono audio to rate with linear interpolation.
func Resample(p *PCM, rate int) *PCM {
	if p.SampleRate == rate || rate <= 0 || len(p.Samples) == 0 {
		return p
	}
	mono := ToMono(p)
	outLen := int(int64(len(mono.Samples)) * int64(rate) / int64(mono.SampleRate))
	out := make([]int16, outLen)
	step := float64(mono.SampleRate) / float64(rate)
	last := len(mono.Samples) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = mono.Samples[last]
			continue
		}
		frac := pos - float64(idx)
		a, b := float64(mono.Samples[idx]), float64(mono.Samples[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return &PCM{SampleRate: rate, Channels: 1, Samples: out}
}
