// Package blob adapts S3 to the pipeline's object key layout: one
// prefix per episode under its podcast, holding the collected content,
// the transcripts each stage produces, and the final audio file.
// Generalized from the teacher's single-purpose MP3 uploader
// (internal/mcpserver/storage.go) into a key-aware read/write client
// used by all three workers.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store is the blob storage adapter (§6 "Blob storage").
type Store struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
}

// NewStore builds a Store. cdnBaseURL may be empty; when set, PublicURL
// returns a CDN-fronted URL instead of a raw S3 one.
func NewStore(client *s3.Client, bucket, cdnBaseURL string) *Store {
	return &Store{client: client, bucket: bucket, cdnBaseURL: cdnBaseURL}
}

// ContentKey is the collected-content object for an episode.
func ContentKey(podcastID, episodeID string) string {
	return fmt.Sprintf("podcasts/%s/%s/content.json", podcastID, episodeID)
}

// TranscriptKind names a transcript artifact. The three constants below
// are the ones the preprocessor produces; the synthesizer passes its own
// "transcript" and "transcript_niqqud" kinds.
type TranscriptKind string

const (
	TranscriptCleanContent TranscriptKind = "clean_content"
	TranscriptAnalysis     TranscriptKind = "analysis"
	TranscriptScript       TranscriptKind = "script"
)

// TranscriptKey builds a timestamped transcript object key. ext is
// "json" or "txt" depending on the artifact's shape.
func TranscriptKey(podcastID, episodeID string, kind TranscriptKind, timestamp time.Time, ext string) string {
	return fmt.Sprintf("podcasts/%s/%s/transcripts/%s_%s.%s",
		podcastID, episodeID, kind, timestamp.UTC().Format("20060102T150405Z"), ext)
}

// AudioKey is the final concatenated episode audio object.
func AudioKey(podcastID, episodeID string) string {
	return fmt.Sprintf("podcasts/%s/%s/audio/podcast.wav", podcastID, episodeID)
}

// AssetKind names the remaining per-episode asset folders (§6).
type AssetKind string

const (
	AssetImages AssetKind = "images"
	AssetVideo  AssetKind = "video"
	AssetAudio  AssetKind = "audio"
	AssetFiles  AssetKind = "files"
)

// AssetKey builds a key for a miscellaneous per-episode asset.
func AssetKey(podcastID, episodeID string, kind AssetKind, filename string) string {
	return fmt.Sprintf("podcasts/%s/%s/%s/%s", podcastID, episodeID, kind, filename)
}

// Put uploads data under key with the given content type.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("blob: put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("blob: get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", key, err)
	}
	return data, nil
}

// PublicURL builds the URL clients use to fetch key, preferring the
// CDN prefix when one is configured.
func (s *Store) PublicURL(key string) string {
	if s.cdnBaseURL != "" {
		return s.cdnBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
