// Package audio captures microphone input and plays synthesized replies
// through external commands.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// Validation errors for captured recordings.
var (
	ErrNotWAV = errors.New("not a valid WAV file")
	ErrNotPCM = errors.New("only PCM format supported")
)

// WAVInfo describes the format of a captured recording.
type WAVInfo struct {
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// ParseWAV validates a WAV byte stream and extracts its format info. Only
// PCM data is accepted; the backend transcriber rejects anything else.
func ParseWAV(data []byte) (WAVInfo, error) {
	if len(data) < wavHeaderSize {
		return WAVInfo{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrNotWAV, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVInfo{}, ErrNotWAV
	}

	info := WAVInfo{
		Format:        binary.LittleEndian.Uint16(data[20:22]),
		Channels:      binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
	}
	if info.Format != 1 { // PCM
		return info, ErrNotPCM
	}
	return info, nil
}

// Encode converts a recording to the base64 form the transports carry.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
