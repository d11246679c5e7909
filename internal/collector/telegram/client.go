// Package telegram adapts gotd/td's MTProto client to the
// internal/collector.Source interface. It is a thin, session-only
// client: authentication happens out of band (an operator runs the
// interactive login once and stores the resulting session in
// TELEGRAM_SESSION), so this package never prompts for a code or
// password, only replays a session and fetches history.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"

	"github.com/apresai/podcasto-pipeline/internal/collector"
)

// historyPageSize matches a conservative single-page fetch; channels this
// pipeline follows rarely produce more than a few hundred messages between
// episodes, so one page per call is the default and the client iterates
// offsetID until the requested window is exhausted.
const historyPageSize = 100

// memorySession is a session.Storage seeded from a pre-authenticated
// session blob. It holds the blob in memory for the lifetime of the
// process; there is no reauthentication path here by design.
type memorySession struct {
	mu   sync.Mutex
	data []byte
}

func (m *memorySession) LoadSession(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data) == 0 {
		return nil, session.ErrNotFound
	}
	return m.data, nil
}

func (m *memorySession) StoreSession(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

// Client fetches channel history and downloads media over MTProto. It
// satisfies internal/collector.Source.
type Client struct {
	appID   int
	appHash string
	td      *telegram.Client
}

// NewClient builds a Client from a pre-authenticated session string (as
// produced by an interactive login run once, outside this pipeline).
func NewClient(appID int, appHash, sessionData string) *Client {
	store := &memorySession{data: []byte(sessionData)}
	td := telegram.NewClient(appID, appHash, telegram.Options{
		SessionStorage: store,
	})
	return &Client{appID: appID, appHash: appHash, td: td}
}

// Run opens the MTProto connection, checks the replayed session is still
// authorized, and invokes fn with a context good for API calls. It never
// attempts interactive login: an unauthorized session is a fatal
// configuration error for this pipeline, not something to recover from.
func (c *Client) Run(ctx context.Context, fn func(ctx context.Context, api *tg.Client) error) error {
	return c.td.Run(ctx, func(ctx context.Context) error {
		status, err := c.td.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("telegram: auth status: %w", err)
		}
		if !status.Authorized {
			return fmt.Errorf("telegram: session is not authorized; run the interactive login once and set TELEGRAM_SESSION")
		}
		return fn(ctx, c.td.API())
	})
}

// resolveChannel resolves a "@username" or bare username to an
// InputPeerClass suitable for messages.getHistory.
func resolveChannel(ctx context.Context, api *tg.Client, channel string) (tg.InputPeerClass, error) {
	username := channel
	for len(username) > 0 && username[0] == '@' {
		username = username[1:]
	}
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, fmt.Errorf("telegram: resolve %q: %w", channel, err)
	}
	for _, chat := range resolved.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}, nil
		}
	}
	return nil, fmt.Errorf("telegram: %q did not resolve to a channel", channel)
}

// FetchMessages implements collector.Source. It paginates
// messages.getHistory backwards from "now" (or from until, if given)
// until it passes since, matching the collector's date-range/days-back
// dual entry mode at the call-site rather than here: callers compute
// since/until once and this client just enforces the window.
func (c *Client) FetchMessages(ctx context.Context, channel string, since, until *time.Time) ([]collector.RawMessage, error) {
	var out []collector.RawMessage
	err := c.Run(ctx, func(ctx context.Context, api *tg.Client) error {
		peer, err := resolveChannel(ctx, api, channel)
		if err != nil {
			return err
		}

		offsetID := 0
		for {
			req := &tg.MessagesGetHistoryRequest{
				Peer:     peer,
				OffsetID: offsetID,
				Limit:    historyPageSize,
			}
			if until != nil {
				req.OffsetDate = int(until.Unix())
			}
			res, err := api.MessagesGetHistory(ctx, req)
			if err != nil {
				return fmt.Errorf("telegram: get history: %w", err)
			}

			msgs := messagesFrom(res)
			if len(msgs) == 0 {
				return nil
			}

			stop := false
			for _, m := range msgs {
				msg, ok := m.(*tg.Message)
				if !ok {
					continue
				}
				ts := time.Unix(int64(msg.Date), 0).UTC()
				if since != nil && ts.Before(*since) {
					stop = true
					break
				}
				out = append(out, rawMessageFrom(msg))
				offsetID = msg.ID
			}
			if stop || len(msgs) < historyPageSize {
				return nil
			}
		}
	})
	return out, err
}

// DownloadMedia implements collector.Source, fetching the full bytes of
// the photo attached to msg. Video/audio/file kinds are declared in
// collector.MediaKind for completeness but this client only downloads
// photos, matching the default media_types=["image"] policy upstream:
// wiring the other kinds through gotd/td's downloader would follow the
// same ToBuffer pattern once a caller actually opts into them.
func (c *Client) DownloadMedia(ctx context.Context, channel string, msg collector.RawMessage) ([]byte, string, error) {
	if msg.Kind != collector.MediaImage {
		return nil, "", fmt.Errorf("telegram: download of kind %q not implemented", msg.Kind)
	}

	var buf bytes.Buffer
	err := c.Run(ctx, func(ctx context.Context, api *tg.Client) error {
		peer, err := resolveChannel(ctx, api, channel)
		if err != nil {
			return err
		}
		res, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer: peer, OffsetID: msg.ID + 1, Limit: 1,
		})
		if err != nil {
			return fmt.Errorf("telegram: locate message %d: %w", msg.ID, err)
		}
		tgMsg, loc, err := photoLocation(res, msg.ID)
		if err != nil {
			return err
		}
		_ = tgMsg

		d := downloader.NewDownloader()
		if _, err := d.Download(api, loc).Stream(ctx, &buf); err != nil {
			return fmt.Errorf("telegram: download photo: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%d.jpg", msg.ID)
	return buf.Bytes(), filename, nil
}

func messagesFrom(res tg.MessagesMessagesClass) []tg.MessageClass {
	switch v := res.(type) {
	case *tg.MessagesMessages:
		return v.Messages
	case *tg.MessagesMessagesSlice:
		return v.Messages
	case *tg.MessagesChannelMessages:
		return v.Messages
	default:
		return nil
	}
}

func rawMessageFrom(msg *tg.Message) collector.RawMessage {
	rm := collector.RawMessage{
		ID:   msg.ID,
		Date: time.Unix(int64(msg.Date), 0).UTC(),
		Text: msg.Message,
	}
	if photo, ok := msg.GetMedia(); ok {
		if _, isPhoto := photo.(*tg.MessageMediaPhoto); isPhoto {
			rm.HasMedia = true
			rm.Kind = collector.MediaImage
		} else if _, isDoc := photo.(*tg.MessageMediaDocument); isDoc {
			rm.HasMedia = true
			rm.Kind = collector.MediaFile
		}
	}
	return rm
}

func photoLocation(res tg.MessagesMessagesClass, messageID int) (*tg.Message, tg.InputFileLocationClass, error) {
	for _, m := range messagesFrom(res) {
		msg, ok := m.(*tg.Message)
		if !ok || msg.ID != messageID {
			continue
		}
		media, ok := msg.GetMedia()
		if !ok {
			return nil, nil, fmt.Errorf("telegram: message %d has no media", messageID)
		}
		mp, ok := media.(*tg.MessageMediaPhoto)
		if !ok {
			return nil, nil, fmt.Errorf("telegram: message %d media is not a photo", messageID)
		}
		photo, ok := mp.Photo.(*tg.Photo)
		if !ok {
			return nil, nil, fmt.Errorf("telegram: message %d photo is empty", messageID)
		}
		var best *tg.PhotoSize
		for i := range photo.Sizes {
			if sz, ok := photo.Sizes[i].(*tg.PhotoSize); ok {
				best = sz
			}
		}
		if best == nil {
			return nil, nil, fmt.Errorf("telegram: message %d has no usable photo size", messageID)
		}
		return msg, &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     best.Type,
		}, nil
	}
	return nil, nil, fmt.Errorf("telegram: message %d not found in history page", messageID)
}
