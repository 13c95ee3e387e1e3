// Package audio converts client-supplied audio payloads into the canonical
// engine input format: 16-bit signed little-endian PCM, mono, 16 kHz.
package audio

import (
	"encoding/binary"
	"strings"

	"github.com/vango-go/voicegate/pkg/core"
)

// Canonical engine input format.
const (
	TargetSampleRate = 16000
	TargetChannels   = 1
	BitsPerSample    = 16
)

// Params describes a raw PCM payload whose framing is not self-describing.
// WAV payloads carry their own framing and ignore Params.
type Params struct {
	SampleRateHz int
	Channels     int
}

// Normalize decodes payload according to format and returns canonical PCM
// bytes. Supported formats are "wav" (16-bit PCM RIFF) and "pcm" or
// "pcm_s16le" (raw, framed by p). Any other format fails with
// unsupported_format; a payload that decodes to zero samples fails with
// empty_audio.
func Normalize(payload []byte, format string, p Params) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "wav":
		samples, rate, channels, err := decodeWAV(payload)
		if err != nil {
			return nil, err
		}
		return encodeS16LE(resample(downmix(samples, channels), rate, TargetSampleRate)), nil
	case "pcm", "pcm_s16le":
		if p.SampleRateHz <= 0 || p.Channels <= 0 {
			return nil, core.NewMalformedMessageError("raw pcm requires sample_rate_hz and channels")
		}
		samples, err := decodeS16LE(payload)
		if err != nil {
			return nil, err
		}
		return encodeS16LE(resample(downmix(samples, p.Channels), p.SampleRateHz, TargetSampleRate)), nil
	default:
		return nil, core.NewUnsupportedFormatError(format)
	}
}

// WrapWAV wraps canonical PCM bytes with a 44-byte RIFF header so the result
// can be handed to collaborators that require a self-describing container.
func WrapWAV(pcm []byte, sampleRate, channels int) []byte {
	dataLen := len(pcm)
	byteRate := sampleRate * channels * BitsPerSample / 8
	blockAlign := channels * BitsPerSample / 8

	header := make([]byte, 44)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], BitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	return append(header, pcm...)
}

// decodeWAV parses a RIFF container holding 16-bit PCM and returns the
// interleaved samples plus their framing. Compressed or non-16-bit WAV
// payloads are rejected as unsupported.
func decodeWAV(payload []byte) (samples []int16, rate, channels int, err error) {
	if len(payload) < 12 || string(payload[0:4]) != "RIFF" || string(payload[8:12]) != "WAVE" {
		return nil, 0, 0, core.NewUnsupportedFormatError(sniffFormat(payload))
	}

	var (
		haveFmt  bool
		audioFmt uint16
		bits     uint16
		data     []byte
	)

	// Walk chunks. Chunk payloads are word-aligned.
	off := 12
	for off+8 <= len(payload) {
		id := string(payload[off : off+4])
		size := int(binary.LittleEndian.Uint32(payload[off+4 : off+8]))
		body := payload[off+8:]
		if size < 0 || size > len(body) {
			return nil, 0, 0, core.NewUnsupportedFormatError("wav")
		}
		body = body[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, core.NewUnsupportedFormatError("wav")
			}
			audioFmt = binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			rate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = binary.LittleEndian.Uint16(body[14:16])
			haveFmt = true
		case "data":
			data = body
		}

		off += 8 + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt || audioFmt != 1 || bits != BitsPerSample || channels <= 0 || rate <= 0 {
		return nil, 0, 0, core.NewUnsupportedFormatError("wav")
	}

	samples, err = decodeS16LE(data)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(samples)%channels != 0 {
		samples = samples[:len(samples)-len(samples)%channels]
	}
	return samples, rate, channels, nil
}

// sniffFormat guesses the container of a payload that failed RIFF parsing so
// the unsupported_format message names what the client actually sent.
func sniffFormat(payload []byte) string {
	switch {
	case len(payload) >= 4 && payload[0] == 0x1a && payload[1] == 0x45 && payload[2] == 0xdf && payload[3] == 0xa3:
		return "webm"
	case len(payload) >= 4 && string(payload[0:4]) == "OggS":
		return "ogg"
	default:
		return "unknown"
	}
}

// decodeS16LE converts little-endian 16-bit bytes to samples. A trailing odd
// byte is dropped.
func decodeS16LE(b []byte) ([]int16, error) {
	n := len(b) / 2
	if n == 0 {
		return nil, core.NewEmptyAudioError()
	}
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return samples, nil
}

func encodeS16LE(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// downmix collapses interleaved multi-channel samples to mono by averaging
// each frame.
func downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for f := 0; f < frames; f++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(samples[f*channels+c])
		}
		mono[f] = int16(sum / channels)
	}
	return mono
}

// resample converts mono samples from one rate to another using linear
// interpolation. Adequate for speech input; aliasing above 8 kHz is not a
// concern for the engine.
func resample(samples []int16, from, to int) []int16 {
	if from == to || len(samples) == 0 {
		return samples
	}
	n := int(int64(len(samples)) * int64(to) / int64(from))
	if n == 0 {
		n = 1
	}
	out := make([]int16, n)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(samples[j])*(1-frac) + float64(samples[j+1])*frac)
	}
	return out
}
