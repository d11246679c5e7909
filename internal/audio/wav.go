package audio

import (
	"encoding/binary"
	"fmt"
)

const (
	wavHeaderSize      = 44
	defaultSampleRate  = 24000
	defaultBitsPerSample = 16
	numChannels        = 1
)

// BuildHeader builds a canonical 44-byte PCM WAV header for dataSize
// bytes of mono audio at the given sample rate/bit depth, matching
// create_wav_header.
func BuildHeader(dataSize, sampleRate, bitsPerSample int) []byte {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	if bitsPerSample <= 0 {
		bitsPerSample = defaultBitsPerSample
	}

	bytesPerSample := bitsPerSample / 8
	blockAlign := numChannels * bytesPerSample
	byteRate := sampleRate * blockAlign
	chunkSize := 36 + dataSize

	h := make([]byte, wavHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(chunkSize))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(numChannels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], uint16(bitsPerSample))
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataSize))
	return h
}

// WrapPCM prepends a WAV header to raw PCM data at the given sample
// rate, producing a playable WAV file.
func WrapPCM(pcm []byte, sampleRate int) []byte {
	header := BuildHeader(len(pcm), sampleRate, defaultBitsPerSample)
	out := make([]byte, 0, len(header)+len(pcm))
	out = append(out, header...)
	out = append(out, pcm...)
	return out
}

// IsValidWAVHeader reports whether data carries a well-formed RIFF/WAVE
// header, matching the format check in validate_audio_chunk.
func IsValidWAVHeader(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// Duration calculates a WAV file's duration in whole seconds from its
// header fields, matching calculate_wav_duration. Falls back to a
// byte-count estimate at the default sample rate if the header is
// malformed.
func Duration(wav []byte) int {
	if len(wav) < wavHeaderSize || !IsValidWAVHeader(wav) {
		return len(wav) / (defaultSampleRate * 2)
	}

	sampleRate := binary.LittleEndian.Uint32(wav[24:28])
	dataSize := binary.LittleEndian.Uint32(wav[40:44])
	if sampleRate == 0 {
		return len(wav) / (defaultSampleRate * 2)
	}

	const bytesPerSample = 2 // 16-bit mono
	return int(dataSize / (sampleRate * bytesPerSample))
}

// Concatenate joins multiple WAV chunks into a single WAV file, taking
// the sample rate from the first chunk's header and stripping the
// 44-byte header from every chunk before rebuilding one header over the
// combined raw PCM, matching concatenate_wav_files.
func Concatenate(chunks [][]byte) ([]byte, int, error) {
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("audio: no chunks to concatenate")
	}
	if len(chunks) == 1 {
		return chunks[0], Duration(chunks[0]), nil
	}

	sampleRate := defaultSampleRate
	if len(chunks[0]) >= wavHeaderSize && IsValidWAVHeader(chunks[0]) {
		sampleRate = int(binary.LittleEndian.Uint32(chunks[0][24:28]))
	}

	var raw []byte
	for _, c := range chunks {
		if len(c) > wavHeaderSize {
			raw = append(raw, c[wavHeaderSize:]...)
		} else {
			raw = append(raw, c...)
		}
	}

	combined := WrapPCM(raw, sampleRate)
	return combined, Duration(combined), nil
}
