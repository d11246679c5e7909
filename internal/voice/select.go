package voice

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// Selection is the pair of voices (and, for single-speaker episodes, the
// lone voice) assigned to an episode.
type Selection struct {
	Speaker1Voice string
	Speaker2Voice string // empty for single-speaker
}

// seed derives a 32-bit deterministic seed from episode_id, role, and
// gender, matching §4.2's MD5(episode_id + ":" + role + ":" + gender)
// truncated-to-32-bits construction. The string is built with explicit
// UTF-8 encoding and no normalization surprises, per the design note on
// cross-runtime determinism (§9): callers must pass NFC-normalized,
// BOM-free strings.
func seed(episodeID, role, gender, suffix string) uint32 {
	s := episodeID + ":" + role + ":" + gender + suffix
	sum := md5.Sum([]byte(s))
	return binary.BigEndian.Uint32(sum[:4])
}

// pick deterministically selects one entry of candidates using seed. This
// implementation does not attempt bit-identical reproduction of CPython's
// random.seed/random.choice (that would require porting Mersenne Twister);
// it defines its own deterministic rule — seed mod len(candidates) — which
// satisfies the spec's actual testable property (same inputs, same process
// and runtime, same output every time), not cross-language parity with the
// original implementation.
func pick(candidates []string, sd uint32) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("voice: no candidates to select from")
	}
	return candidates[int(sd)%len(candidates)], nil
}

// Select implements §4.2's selection algorithm for a multi-speaker
// episode. speaker1Role/speaker2Role are the dynamic role labels (e.g.
// "Host", "Tech Expert"); randomizeSpeaker2 corresponds to "randomization
// for speaker 2" being enabled.
func Select(episodeID, language, speaker1Role, gender1, speaker2Role, gender2 string, randomizeSpeaker2 bool) (Selection, error) {
	lang := languageOrEnglish(language)

	v1 := lang.MaleDefault
	if gender1 == "female" {
		v1 = lang.FemaleDefault
	}

	if !randomizeSpeaker2 {
		v2 := lang.MaleDefault
		if gender2 == "female" {
			v2 = lang.FemaleDefault
		}
		return Selection{Speaker1Voice: v1, Speaker2Voice: v2}, nil
	}

	candidates := ByGender(gender2)
	sd := seed(episodeID, speaker2Role, gender2, "")
	v2, err := pick(candidates, sd)
	if err != nil {
		return Selection{}, fmt.Errorf("voice: select speaker 2: %w", err)
	}

	if v2 == v1 {
		// Collision: re-seed with ":alt" and remove the collided voice
		// from the candidate list before picking again.
		remaining := make([]string, 0, len(candidates))
		for _, c := range candidates {
			if c != v1 {
				remaining = append(remaining, c)
			}
		}
		altSeed := seed(episodeID, speaker2Role, gender2, ":alt")
		v2, err = pick(remaining, altSeed)
		if err != nil {
			return Selection{}, fmt.Errorf("voice: select alternate speaker 2 (collision on %q): %w", v1, err)
		}
	}

	return Selection{Speaker1Voice: v1, Speaker2Voice: v2}, nil
}

// SelectSingle resolves the lone voice for a single-speaker episode —
// always the language default for the given gender, no randomization.
func SelectSingle(language, gender string) string {
	lang := languageOrEnglish(language)
	if gender == "female" {
		return lang.FemaleDefault
	}
	return lang.MaleDefault
}
