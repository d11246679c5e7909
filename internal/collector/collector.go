package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentMediaDownloads bounds parallel media fetches, matching
// MediaHandler's asyncio.Semaphore(5).
const maxConcurrentMediaDownloads = 5

// RawMessage is one Telegram history item as the Source reports it,
// before filtering or cleaning.
type RawMessage struct {
	ID       int
	Date     time.Time
	Text     string
	HasMedia bool
	Kind     MediaKind
}

// MediaKind classifies the attachment on a RawMessage, mirroring the
// telethon type-switch in download_media.
type MediaKind string

const (
	MediaNone  MediaKind = ""
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaFile  MediaKind = "file"
)

// Source fetches a channel's message history and downloads one message's
// media payload. A Telegram-backed implementation lives in
// internal/collector/telegram.
type Source interface {
	FetchMessages(ctx context.Context, channel string, since, until *time.Time) ([]RawMessage, error)
	DownloadMedia(ctx context.Context, channel string, msg RawMessage) ([]byte, string, error)
}

// BlobUploader is the subset of internal/store/blob.Store the collector
// needs to save downloaded media.
type BlobUploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Message is one filtered, cleaned content item ready for the content.json
// artifact, matching _process_single_message's result shape.
type Message struct {
	ID        int       `json:"id"`
	Date      time.Time `json:"date"`
	Text      string    `json:"text"`
	MediaInfo string    `json:"media_info,omitempty"`
	URLs      []string  `json:"urls,omitempty"`
}

// MediaStats tallies how many messages carried each media kind, matching
// _calculate_media_stats.
type MediaStats struct {
	Images         int `json:"image"`
	Videos         int `json:"video"`
	Audio          int `json:"audio"`
	Files          int `json:"file"`
	DownloadFailed int `json:"download_failed"`
}

// Options configures one collection run.
type Options struct {
	PodcastID        string
	EpisodeID        string
	Channel          string
	Since, Until     *time.Time
	MediaTypes       []string // which kinds to actually download; others get a placeholder string
	FilteredDomains  []string
}

// Process fetches, filters, and enriches one channel's message history,
// downloading allowed media kinds to blob storage under
// podcasts/{podcast_id}/{episode_id}/{kind}/{filename}, matching
// ChannelProcessor._process_messages/_process_single_message.
func Process(ctx context.Context, source Source, blobs BlobUploader, opts Options, log *slog.Logger) ([]Message, MediaStats, error) {
	raw, err := source.FetchMessages(ctx, opts.Channel, opts.Since, opts.Until)
	if err != nil {
		return nil, MediaStats{}, fmt.Errorf("collector: fetch messages: %w", err)
	}

	filter := NewFilter(opts.FilteredDomains)
	allowed := allowedMediaSet(opts.MediaTypes)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentMediaDownloads)

	var mu sync.Mutex
	var messages []Message
	var stats MediaStats

	for _, rm := range raw {
		rm := rm
		if rm.Text == "" {
			continue
		}
		if IsPromotional(rm.Text) {
			continue
		}
		cleaned := filter.CleanText(rm.Text)
		if !ShouldInclude(cleaned) {
			continue
		}
		urls := filter.ExtractURLs(rm.Text)

		g.Go(func() error {
			mediaInfo := downloadOneMedia(gctx, source, blobs, opts, rm, allowed, log)

			mu.Lock()
			messages = append(messages, Message{
				ID: rm.ID, Date: rm.Date, Text: cleaned, MediaInfo: mediaInfo, URLs: urls,
			})
			tallyMedia(&stats, mediaInfo)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, MediaStats{}, err
	}

	if log != nil {
		log.InfoContext(ctx, "collector processed messages", "fetched", len(raw), "kept", len(messages))
	}

	return messages, stats, nil
}

func allowedMediaSet(kinds []string) map[MediaKind]bool {
	if len(kinds) == 0 {
		return map[MediaKind]bool{MediaImage: true}
	}
	set := make(map[MediaKind]bool, len(kinds))
	for _, k := range kinds {
		set[MediaKind(k)] = true
	}
	return set
}

// downloadOneMedia mirrors download_media's per-kind branching: a kind not
// in the allowed set gets a "not configured" placeholder instead of being
// fetched, matching the original's behavior of always recording that media
// existed even when its bytes were never downloaded.
func downloadOneMedia(ctx context.Context, source Source, blobs BlobUploader, opts Options, rm RawMessage, allowed map[MediaKind]bool, log *slog.Logger) string {
	if !rm.HasMedia || rm.Kind == MediaNone {
		return ""
	}
	if !allowed[rm.Kind] {
		return fmt.Sprintf("[%s: Not downloaded - Not configured to download %ss]", mediaLabel(rm.Kind), rm.Kind)
	}

	data, filename, err := source.DownloadMedia(ctx, opts.Channel, rm)
	if err != nil {
		if log != nil {
			log.WarnContext(ctx, "media download failed", "message_id", rm.ID, "kind", rm.Kind, "error", err)
		}
		return fmt.Sprintf("[%s: Download failed]", mediaLabel(rm.Kind))
	}

	key := fmt.Sprintf("podcasts/%s/%s/%s/%s", opts.PodcastID, opts.EpisodeID, mediaFolder(rm.Kind), filename)
	if err := blobs.Put(ctx, key, data, mediaContentType(rm.Kind, filename)); err != nil {
		if log != nil {
			log.WarnContext(ctx, "media upload failed", "message_id", rm.ID, "kind", rm.Kind, "error", err)
		}
		return fmt.Sprintf("[%s: Download failed]", mediaLabel(rm.Kind))
	}

	return fmt.Sprintf("[%s: %s]", mediaLabel(rm.Kind), key)
}

func mediaLabel(k MediaKind) string {
	switch k {
	case MediaImage:
		return "Image"
	case MediaVideo:
		return "Video"
	case MediaAudio:
		return "Audio"
	default:
		return "File"
	}
}

func mediaFolder(k MediaKind) string {
	switch k {
	case MediaImage:
		return "images"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	default:
		return "files"
	}
}

func mediaContentType(k MediaKind, filename string) string {
	switch k {
	case MediaImage:
		return "image/jpeg"
	case MediaVideo:
		return "video/mp4"
	case MediaAudio:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

func tallyMedia(stats *MediaStats, mediaInfo string) {
	switch {
	case mediaInfo == "":
		return
	case containsLabel(mediaInfo, "Download failed"):
		stats.DownloadFailed++
	case containsLabel(mediaInfo, "Image"):
		stats.Images++
	case containsLabel(mediaInfo, "Video"):
		stats.Videos++
	case containsLabel(mediaInfo, "Audio"):
		stats.Audio++
	case containsLabel(mediaInfo, "File"):
		stats.Files++
	}
}

func containsLabel(s, label string) bool {
	for i := 0; i+len(label) <= len(s); i++ {
		if s[i:i+len(label)] == label {
			return true
		}
	}
	return false
}
