package blob

import (
	"testing"
	"time"
)

func TestContentKey(t *testing.T) {
	got := ContentKey("pod-1", "ep-1")
	want := "podcasts/pod-1/ep-1/content.json"
	if got != want {
		t.Errorf("ContentKey = %q, want %q", got, want)
	}
}

func TestTranscriptKey(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := TranscriptKey("pod-1", "ep-1", TranscriptScript, ts, "txt")
	want := "podcasts/pod-1/ep-1/transcripts/script_20260102T030405Z.txt"
	if got != want {
		t.Errorf("TranscriptKey = %q, want %q", got, want)
	}
}

func TestAudioKey(t *testing.T) {
	got := AudioKey("pod-1", "ep-1")
	want := "podcasts/pod-1/ep-1/audio/podcast.wav"
	if got != want {
		t.Errorf("AudioKey = %q, want %q", got, want)
	}
}

func TestAssetKey(t *testing.T) {
	got := AssetKey("pod-1", "ep-1", AssetImages, "cover.png")
	want := "podcasts/pod-1/ep-1/images/cover.png"
	if got != want {
		t.Errorf("AssetKey = %q, want %q", got, want)
	}
}

func TestPublicURLPrefersCDN(t *testing.T) {
	withCDN := NewStore(nil, "my-bucket", "https://cdn.example.com")
	if got := withCDN.PublicURL("podcasts/p/e/audio/podcast.wav"); got != "https://cdn.example.com/podcasts/p/e/audio/podcast.wav" {
		t.Errorf("PublicURL with CDN = %q", got)
	}

	noCDN := NewStore(nil, "my-bucket", "")
	if got := noCDN.PublicURL("key"); got != "https://my-bucket.s3.amazonaws.com/key" {
		t.Errorf("PublicURL without CDN = %q", got)
	}
}
