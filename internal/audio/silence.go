package audio

import (
	"encoding/binary"
	"math"
)

// SilenceResult reports whether a chunk contains an unbroken run of
// near-silent audio long enough to indicate a synthesis failure rather
// than a natural pause.
type SilenceResult struct {
	HasExtendedSilence bool
	MaxSilenceSeconds  float64
}

// DetectExtendedSilence scans wav (a full WAV file, header included) in
// fixed-size RMS windows and reports the longest unbroken run of
// windows quieter than thresholdDB. There is no corresponding metric in
// any upstream TTS response — a chunk that renders as near-silence is
// how a failed Gemini TTS call shows up downstream, so this is a
// best-effort heuristic gate rather than a port of existing logic.
//
// sampleEveryN > 1 trades resolution for speed by only measuring every
// Nth window; earlyExit stops scanning as soon as a run reaches
// maxSilenceDuration, since validate_audio_chunk only needs a yes/no answer.
func DetectExtendedSilence(wav []byte, maxSilenceDuration, thresholdDB float64, windowMs, sampleEveryN int, earlyExit bool) SilenceResult {
	pcm, sampleRate := pcmAndRate(wav)
	if len(pcm) < 2 || sampleRate <= 0 {
		return SilenceResult{}
	}

	if windowMs <= 0 {
		windowMs = 100
	}
	if sampleEveryN <= 0 {
		sampleEveryN = 1
	}

	samplesPerWindow := sampleRate * windowMs / 1000
	if samplesPerWindow < 1 {
		samplesPerWindow = 1
	}
	windowBytes := samplesPerWindow * 2 // 16-bit samples

	totalWindows := len(pcm) / windowBytes
	if totalWindows == 0 {
		return SilenceResult{}
	}

	windowSeconds := float64(windowMs) / 1000.0
	threshold := thresholdDB

	var maxRun, currentRun float64
	for w := 0; w < totalWindows; w += sampleEveryN {
		start := w * windowBytes
		end := start + windowBytes
		if end > len(pcm) {
			end = len(pcm)
		}

		db := windowDB(pcm[start:end])
		windowDuration := windowSeconds * float64(sampleEveryN)

		if db < threshold {
			currentRun += windowDuration
			if currentRun > maxRun {
				maxRun = currentRun
			}
			if earlyExit && maxRun >= maxSilenceDuration {
				return SilenceResult{HasExtendedSilence: true, MaxSilenceSeconds: maxRun}
			}
		} else {
			currentRun = 0
		}
	}

	return SilenceResult{
		HasExtendedSilence: maxRun >= maxSilenceDuration,
		MaxSilenceSeconds:  maxRun,
	}
}

// pcmAndRate strips the WAV header (if present) and returns the raw
// 16-bit PCM payload plus the sample rate to interpret it at.
func pcmAndRate(wav []byte) ([]byte, int) {
	if len(wav) >= wavHeaderSize && IsValidWAVHeader(wav) {
		rate := int(binary.LittleEndian.Uint32(wav[24:28]))
		return wav[wavHeaderSize:], rate
	}
	return wav, defaultSampleRate
}

// windowDB computes the dBFS (relative to the 16-bit signed full-scale
// amplitude) RMS level of one window of 16-bit little-endian PCM
// samples.
func windowDB(window []byte) float64 {
	n := len(window) / 2
	if n == 0 {
		return math.Inf(-1)
	}

	var sumSquares float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(window[i*2 : i*2+2]))
		v := float64(sample)
		sumSquares += v * v
	}

	rms := math.Sqrt(sumSquares / float64(n))
	if rms <= 0 {
		return math.Inf(-1)
	}

	const fullScale = 32768.0
	return 20 * math.Log10(rms/fullScale)
}
