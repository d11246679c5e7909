package audio

import "testing"

func TestBuildHeaderAndDuration(t *testing.T) {
	sampleRate := 24000
	numSamples := sampleRate * 2 // 2 seconds of mono 16-bit audio
	pcm := make([]byte, numSamples*2)

	wav := WrapPCM(pcm, sampleRate)
	if !IsValidWAVHeader(wav) {
		t.Fatalf("expected valid WAV header")
	}
	if got := Duration(wav); got != 2 {
		t.Errorf("duration = %d, want 2", got)
	}
}

func TestIsValidWAVHeaderRejectsGarbage(t *testing.T) {
	if IsValidWAVHeader([]byte("not a wav file at all")) {
		t.Errorf("expected invalid header to be rejected")
	}
}

func TestDurationFallsBackOnMalformedHeader(t *testing.T) {
	garbage := make([]byte, defaultSampleRate*2) // 1 second at default rate, no header
	got := Duration(garbage)
	if got != 1 {
		t.Errorf("duration fallback = %d, want 1", got)
	}
}

func TestConcatenateSingleChunkReturnsAsIs(t *testing.T) {
	wav := WrapPCM(make([]byte, 100), 24000)
	combined, _, err := Concatenate([][]byte{wav})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(combined) != len(wav) {
		t.Errorf("expected single chunk passthrough, got different length")
	}
}

func TestConcatenateMultipleChunksStripsHeaders(t *testing.T) {
	sampleRate := 24000
	chunk1 := WrapPCM(make([]byte, 480), sampleRate) // 10ms of silence
	chunk2 := WrapPCM(make([]byte, 480), sampleRate)

	combined, duration, err := Concatenate([][]byte{chunk1, chunk2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDataSize := 480 * 2
	if len(combined) != wavHeaderSize+wantDataSize {
		t.Errorf("combined length = %d, want %d", len(combined), wavHeaderSize+wantDataSize)
	}
	if duration != Duration(combined) {
		t.Errorf("returned duration %d does not match recomputed duration %d", duration, Duration(combined))
	}
}

func TestConcatenateEmptyIsError(t *testing.T) {
	if _, _, err := Concatenate(nil); err == nil {
		t.Errorf("expected error for empty chunk list")
	}
}
