// Package audio ports the shared-layer audio chunk manager: splitting a
// generated script into TTS-sized chunks, validating and parallel-driving
// synthesis over them, and concatenating the results into one WAV file.
package audio

import "strings"

// DefaultMaxCharsPerChunk is tuned for Hebrew with niqqud expansion: a
// diacritized Hebrew chunk runs noticeably longer than its plain-text
// source, so 1200 leaves headroom under the TTS model's practical input
// ceiling.
const DefaultMaxCharsPerChunk = 1200

// SplitScript splits a script into chunks no larger than maxChars,
// breaking on line boundaries so a chunk never cuts a dialogue line or
// TTS markup tag in half. A maxChars of 0 uses DefaultMaxCharsPerChunk.
func SplitScript(script string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxCharsPerChunk
	}

	lines := strings.Split(script, "\n")
	var chunks []string
	var current []string
	currentLen := 0

	for _, line := range lines {
		lineLen := len(line) + 1 // +1 for the newline join

		if currentLen+lineLen > maxChars && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			if strings.TrimSpace(line) != "" {
				current = []string{line}
				currentLen = lineLen
			} else {
				current = nil
				currentLen = 0
			}
			continue
		}

		if strings.TrimSpace(line) != "" || len(current) > 0 {
			current = append(current, line)
			currentLen += lineLen
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}

	return chunks
}
