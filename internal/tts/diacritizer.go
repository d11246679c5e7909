package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apresai/podcasto-pipeline/internal/apperr"
)

// diacritizerChunkSize bounds each call to the niqqud service — the
// service's own docs cap request bodies well under this, and chunking
// here also keeps one slow paragraph from blocking the whole script.
const diacritizerChunkSize = 10000

// diacritizerEndpoint is Dicta's public Nakdan API, the source named in
// the Hebrew-script pipeline this system's distillation dropped.
const diacritizerEndpoint = "https://nakdan-1-1.loadbalancer.dicta.org.il/addnikud"

type nakdanRequest struct {
	Task        string `json:"task"`
	GenAll      bool   `json:"genAll"`
	Data        string `json:"data"`
	AddMorph    bool   `json:"addMorph"`
}

// nakdanWord is one tokenized word in the response, carrying its
// diacritized options in Options[0].Word.
type nakdanWord struct {
	Word    string `json:"word"`
	Options []struct {
		Word string `json:"word"`
	} `json:"options"`
}

// Diacritizer adds Hebrew niqqud (vowel points) to generated script text
// before it's sent to the TTS model, which otherwise mispronounces
// ambiguous Hebrew words. This has no equivalent for non-Hebrew episodes;
// callers should only invoke it when the episode's language_code is "he".
type Diacritizer struct {
	httpClient *http.Client
}

// NewDiacritizer builds a Diacritizer using a plain HTTP client — the
// service requires no API key.
func NewDiacritizer() *Diacritizer {
	return &Diacritizer{httpClient: &http.Client{}}
}

// Diacritize adds niqqud to text, chunking at paragraph boundaries so no
// call exceeds diacritizerChunkSize unless one paragraph alone does.
func (d *Diacritizer) Diacritize(ctx context.Context, text string) (string, error) {
	chunks := splitForDiacritization(text, diacritizerChunkSize)

	var out strings.Builder
	for i, chunk := range chunks {
		diacritized, err := d.diacritizeChunk(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("diacritizer: chunk %d/%d: %w", i+1, len(chunks), err)
		}
		out.WriteString(diacritized)
	}
	return out.String(), nil
}

func (d *Diacritizer) diacritizeChunk(ctx context.Context, chunk string) (string, error) {
	reqBody := nakdanRequest{Task: "nakdan", GenAll: false, Data: chunk, AddMorph: false}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperr.FatalExternal("diacritizer: marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, diacritizerEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", apperr.FatalExternal("diacritizer: build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return "", apperr.TransientLocal("diacritizer: request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.TransientLocal("diacritizer: read response", err)
	}
	if resp.StatusCode >= 500 {
		return "", apperr.Deferrable(fmt.Sprintf("diacritizer: upstream status %d", resp.StatusCode), fmt.Errorf("%s", body))
	}
	if resp.StatusCode != http.StatusOK {
		// The service is a best-effort enhancement, not a hard dependency
		// of audio generation — a rejected request falls back to the
		// undiacritized chunk rather than failing the episode.
		return chunk, nil
	}

	var words []nakdanWord
	if err := json.Unmarshal(body, &words); err != nil {
		return chunk, nil
	}

	var out strings.Builder
	for _, w := range words {
		if len(w.Options) > 0 && w.Options[0].Word != "" {
			out.WriteString(w.Options[0].Word)
		} else {
			out.WriteString(w.Word)
		}
	}
	return out.String(), nil
}

// splitForDiacritization breaks text into chunks no larger than maxLen,
// splitting only at paragraph breaks so TTS markup tokens are never split
// mid-tag. A single paragraph longer than maxLen is not split and becomes
// one chunk larger than maxLen.
func splitForDiacritization(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	for _, p := range paragraphs {
		if current.Len() > 0 && current.Len()+len(p)+2 > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
