package audio

import (
	"encoding/binary"
	"testing"
)

func makeToneWAV(sampleRate int, seconds float64, amplitude int16) []byte {
	n := int(float64(sampleRate) * seconds)
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:i*2+2], uint16(amplitude))
	}
	return WrapPCM(pcm, sampleRate)
}

func TestDetectExtendedSilenceOnSilentAudio(t *testing.T) {
	wav := makeToneWAV(24000, 6.0, 0)
	res := DetectExtendedSilence(wav, 5.0, -45.0, 100, 1, false)
	if !res.HasExtendedSilence {
		t.Errorf("expected extended silence to be detected, got %+v", res)
	}
}

func TestDetectExtendedSilenceOnLoudAudio(t *testing.T) {
	wav := makeToneWAV(24000, 6.0, 20000)
	res := DetectExtendedSilence(wav, 5.0, -45.0, 100, 1, false)
	if res.HasExtendedSilence {
		t.Errorf("expected no extended silence on loud audio, got %+v", res)
	}
}

func TestDetectExtendedSilenceShortClipNeverTrips(t *testing.T) {
	wav := makeToneWAV(24000, 1.0, 0)
	res := DetectExtendedSilence(wav, 5.0, -45.0, 100, 1, false)
	if res.HasExtendedSilence {
		t.Errorf("expected a 1s silent clip to stay under the 5s threshold, got %+v", res)
	}
}

func TestValidateChunkRejectsSmallData(t *testing.T) {
	ok, reason := ValidateChunk(make([]byte, 10), 5, false)
	if ok {
		t.Errorf("expected small chunk to be rejected")
	}
	if reason == "" {
		t.Errorf("expected a rejection reason")
	}
}

func TestValidateChunkRejectsBadDuration(t *testing.T) {
	data := make([]byte, 2000)
	if ok, _ := ValidateChunk(data, 0, false); ok {
		t.Errorf("expected zero duration to be rejected")
	}
	if ok, _ := ValidateChunk(data, 400, false); ok {
		t.Errorf("expected 400s duration to be rejected")
	}
}

func TestValidateChunkAcceptsGoodAudio(t *testing.T) {
	wav := makeToneWAV(24000, 2.0, 20000)
	ok, reason := ValidateChunk(wav, Duration(wav), true)
	if !ok {
		t.Errorf("expected valid loud chunk to be accepted, reason=%q", reason)
	}
}
