// Package voice maps (language, gender, role, episode) to a stable Gemini
// voice identifier, and assembles the composite speech-style descriptor
// the TTS client embeds in its prompt.
package voice

// Info describes one catalog voice.
type Info struct {
	ID          string
	Name        string
	Gender      string // "male" or "female"
	Description string
	DefaultFor  string // "Voice 1", "Voice 2", "Voice 3", or empty
}

// Catalog is the full set of Gemini prebuilt voices. Gacrux is labelled
// "male" here — one source file in the original system's retrieval pack
// listed it as female, with an inline comment marking that as a past bug;
// "male" is authoritative (it also matches the "Mature" description, which
// the female-labelled source did not dispute).
var Catalog = []Info{
	{ID: "Charon", Name: "Charon", Gender: "male", Description: "Informative", DefaultFor: "Voice 1"},
	{ID: "Leda", Name: "Leda", Gender: "female", Description: "Youthful", DefaultFor: "Voice 2"},
	{ID: "Fenrir", Name: "Fenrir", Gender: "male", Description: "Excitable", DefaultFor: "Voice 3"},
	{ID: "Achernar", Name: "Achernar", Gender: "female", Description: "Soft"},
	{ID: "Achird", Name: "Achird", Gender: "male", Description: "Friendly"},
	{ID: "Algenib", Name: "Algenib", Gender: "male", Description: "Gravelly"},
	{ID: "Algieba", Name: "Algieba", Gender: "male", Description: "Smooth"},
	{ID: "Alnilam", Name: "Alnilam", Gender: "male", Description: "Firm"},
	{ID: "Aoede", Name: "Aoede", Gender: "female", Description: "Breezy"},
	{ID: "Autonoe", Name: "Autonoe", Gender: "female", Description: "Bright"},
	{ID: "Callirrhoe", Name: "Callirrhoe", Gender: "female", Description: "Easy-going"},
	{ID: "Despina", Name: "Despina", Gender: "female", Description: "Smooth"},
	{ID: "Enceladus", Name: "Enceladus", Gender: "male", Description: "Breathy"},
	{ID: "Erinome", Name: "Erinome", Gender: "female", Description: "Clear"},
	{ID: "Gacrux", Name: "Gacrux", Gender: "male", Description: "Mature"},
	{ID: "Iapetus", Name: "Iapetus", Gender: "male", Description: "Clear"},
	{ID: "Kore", Name: "Kore", Gender: "female", Description: "Firm"},
	{ID: "Laomedeia", Name: "Laomedeia", Gender: "female", Description: "Upbeat"},
	{ID: "Orus", Name: "Orus", Gender: "male", Description: "Firm"},
	{ID: "Puck", Name: "Puck", Gender: "male", Description: "Upbeat"},
	{ID: "Pulcherrima", Name: "Pulcherrima", Gender: "female", Description: "Forward"},
	{ID: "Rasalgethi", Name: "Rasalgethi", Gender: "male", Description: "Informative"},
	{ID: "Sadachbia", Name: "Sadachbia", Gender: "female", Description: "Lively"},
	{ID: "Sadaltager", Name: "Sadaltager", Gender: "male", Description: "Knowledgeable"},
	{ID: "Schedar", Name: "Schedar", Gender: "female", Description: "Even"},
	{ID: "Sulafat", Name: "Sulafat", Gender: "female", Description: "Warm"},
	{ID: "Umbriel", Name: "Umbriel", Gender: "male", Description: "Easy-going"},
	{ID: "Vindemiatrix", Name: "Vindemiatrix", Gender: "female", Description: "Gentle"},
	{ID: "Zephyr", Name: "Zephyr", Gender: "female", Description: "Bright"},
	{ID: "Zubenelgenubi", Name: "Zubenelgenubi", Gender: "male", Description: "Casual"},
}

// ByGender returns the IDs of every catalog voice with the given gender,
// in catalog order (stable — selection determinism depends on it).
func ByGender(gender string) []string {
	var ids []string
	for _, v := range Catalog {
		if v.Gender == gender {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// LanguageDefaults holds the male/female default voice and delivery-style
// descriptors for one language.
type LanguageDefaults struct {
	MaleDefault   string
	FemaleDefault string
	Instruction   string
	Pace          string
	Tone          string
	Volume        string
	BCP47         string
}

// Languages is the per-language default table (§4.2). Only Hebrew and
// English are named by the spec's environment/WAV sections; both are
// carried here, with English as the fallback for any other ISO code.
var Languages = map[string]LanguageDefaults{
	"he": {
		MaleDefault:   "Charon",
		FemaleDefault: "Leda",
		Instruction:   "Speak naturally in Hebrew with clear pronunciation.",
		Pace:          "moderate",
		Tone:          "warm",
		Volume:        "normal",
		BCP47:         "he-IL",
	},
	"en": {
		MaleDefault:   "Charon",
		FemaleDefault: "Leda",
		Instruction:   "Speak naturally in English with clear pronunciation.",
		Pace:          "moderate",
		Tone:          "warm",
		Volume:        "normal",
		BCP47:         "en-US",
	},
}

// LanguageCode resolves a BCP-47 tag for an ISO language code, defaulting
// to English when the code is not in Languages.
func LanguageCode(language string) string {
	if d, ok := Languages[language]; ok {
		return d.BCP47
	}
	return Languages["en"].BCP47
}

func languageOrEnglish(language string) LanguageDefaults {
	if d, ok := Languages[language]; ok {
		return d
	}
	return Languages["en"]
}

// ContentStyle holds the pace/tone/volume/instruction overrides for one
// content-type category.
type ContentStyle struct {
	Pace             string
	Tone             string
	Volume           string
	StyleInstruction string
}

// ContentStyles is the per-content-type style-override table (§4.2).
var ContentStyles = map[string]ContentStyle{
	"news": {
		Pace: "brisk", Tone: "authoritative", Volume: "normal",
		StyleInstruction: "Deliver with the measured urgency of a news broadcast.",
	},
	"technology": {
		Pace: "moderate", Tone: "curious", Volume: "normal",
		StyleInstruction: "Explain technical concepts conversationally, as if to an engaged peer.",
	},
	"entertainment": {
		Pace: "lively", Tone: "playful", Volume: "normal",
		StyleInstruction: "Keep the energy light and conversational.",
	},
	"finance": {
		Pace: "measured", Tone: "analytical", Volume: "normal",
		StyleInstruction: "Speak with the careful precision of a financial analyst.",
	},
	"general": {
		Pace: "moderate", Tone: "neutral", Volume: "normal",
		StyleInstruction: "Speak naturally and conversationally.",
	},
}

func contentStyleOrGeneral(contentType string) ContentStyle {
	if s, ok := ContentStyles[contentType]; ok {
		return s
	}
	return ContentStyles["general"]
}

// Style is the composite speech-style descriptor the TTS client embeds in
// its prompt — language defaults merged with content-type overrides, which
// take precedence for pace/tone/volume.
type Style struct {
	Pace             string
	Tone             string
	Volume           string
	Instruction      string
	StyleInstruction string
	LanguageCode     string
}

// AssembleStyle merges the language defaults for language with the
// content-type overrides for contentType (§4.2 "Style assembly").
func AssembleStyle(language, contentType string) Style {
	lang := languageOrEnglish(language)
	content := contentStyleOrGeneral(contentType)
	return Style{
		Pace:             content.Pace,
		Tone:             content.Tone,
		Volume:           content.Volume,
		Instruction:      lang.Instruction,
		StyleInstruction: content.StyleInstruction,
		LanguageCode:     lang.BCP47,
	}
}

// ContentTypeDefaultGender maps a content_type to the default gender
// assigned to speaker 2's specific_role, per §4.4 ("Gender for
// specific_role is derived from a fixed content-type → default-gender
// table").
var ContentTypeDefaultGender = map[string]string{
	"news":          "female",
	"technology":    "male",
	"finance":       "male",
	"politics":      "female",
	"sports":        "male",
	"health":        "female",
	"science":       "male",
	"entertainment": "female",
	"business":      "male",
	"education":     "female",
	"lifestyle":     "female",
	"general":       "female",
}
