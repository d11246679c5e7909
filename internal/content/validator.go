package content

import (
	"regexp"
	"strings"
)

// topicIndicators is the flat vocabulary script_validator.py uses for
// cheap topic-coverage checks: not a full NER pass, just a fixed list of
// entities/places this feed's subject matter revolves around.
var topicIndicators = []string{
	"טראמפ", "נתניהו", "ביידן", "חמאס", "עזה", "לבנון", "איראן", "חיזבאללה",
	"צה\"ל", "צהל", "ממשלה", "כנסת", "חטופים",
	"trump", "netanyahu", "biden", "hamas", "gaza", "lebanon", "iran", "hezbollah",
	"idf", "government", "hostages",
	"ירושלים", "תל אביב", "תל-אביב", "jerusalem", "telaviv",
	"קטאר", "מצרים", "טורקיה", "qatar", "egypt", "turkey",
	"אירוויזיון", "eurovision", "משט", "flotilla",
	"ai", "בינה מלאכותית", "טכנולוגיה", "technology",
}

// commonWords is filtered out of the hallucination-risk word-diff so
// function words and TTS markup vocabulary never count as "invented"
// content.
var commonWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"של": true, "את": true, "על": true, "עם": true, "כי": true, "גם": true,
	"או": true, "אבל": true, "ב": true, "ל": true, "מ": true, "ה": true,
	"pause": true, "short": true, "medium": true, "long": true, "break": true,
	"emphasis": true, "laughing": true,
	"host": true, "expert": true, "analyst": true, "speaker": true,
	"welcome": true, "thank": true, "thanks": true,
}

var (
	markupBracketPattern = regexp.MustCompile(`\[.*?\]`)
	markupAngleePattern  = regexp.MustCompile(`<.*?>`)
	wordPattern          = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

const passThreshold = 0.65

// Report is the outcome of validating a generated script against its
// source content, matching ScriptValidator.validate_script.
type Report struct {
	QualityScore       float64
	ActualRatio        float64
	TargetRatio        float64
	RatioMatchScore    float64
	CoverageScore      float64
	TopicsInContent    int
	TopicsCovered      int
	MissingTopics      []string
	HallucinationRisk  float64
	UniqueWordsCount   int
	Recommendations    []string
	Passed             bool
	Strategy           Strategy
	MessageCount       int
}

// ValidateScript scores a generated script against the content it was
// drafted from. script is plain text including TTS markup tokens.
func ValidateScript(messages []Message, script string, metrics Metrics) Report {
	scriptChars := len([]rune(script))
	var actualRatio float64
	if metrics.TotalChars > 0 {
		actualRatio = float64(scriptChars) / float64(metrics.TotalChars)
	}
	targetRatio := metrics.TargetRatio

	topicsInContent := extractTopics(joinMessageText(messages))
	topicsInScript := extractTopics(script)
	covered := intersect(topicsInScript, topicsInContent)

	var coverageScore float64 = 1.0
	if len(topicsInContent) > 0 {
		coverageScore = float64(len(covered)) / float64(len(topicsInContent))
	}

	scriptWords := tokenizeSet(script)
	contentWords := map[string]bool{}
	for _, m := range messages {
		for w := range tokenizeSet(m.Text) {
			contentWords[w] = true
		}
	}

	uniqueToScript := map[string]bool{}
	for w := range scriptWords {
		if !contentWords[w] && !commonWords[w] {
			uniqueToScript[w] = true
		}
	}

	var hallucinationRisk float64
	if len(scriptWords) > 0 {
		hallucinationRisk = float64(len(uniqueToScript)) / float64(len(scriptWords))
	}

	ratioMatchScore := 1.0
	if targetRatio > 0 {
		diff := actualRatio - targetRatio
		if diff < 0 {
			diff = -diff
		}
		ratioMatchScore = 1.0 - min1(diff/targetRatio)
	}

	qualityScore := ratioMatchScore*0.4 + coverageScore*0.4 + (1.0-min1(hallucinationRisk))*0.2

	var recommendations []string
	switch {
	case actualRatio < targetRatio*0.85:
		recommendations = append(recommendations, "script significantly shorter than target")
	case actualRatio > targetRatio*1.15:
		recommendations = append(recommendations, "script significantly longer than target")
	}
	if coverageScore < 0.75 {
		recommendations = append(recommendations, "low topic coverage: missing key topics")
	}
	if hallucinationRisk > 0.35 {
		recommendations = append(recommendations, "high hallucination risk: many new words not in source")
	}

	missing := make([]string, 0)
	for t := range topicsInContent {
		if !topicsInScript[t] {
			missing = append(missing, t)
		}
	}

	return Report{
		QualityScore:      qualityScore,
		ActualRatio:       actualRatio,
		TargetRatio:       targetRatio,
		RatioMatchScore:   ratioMatchScore,
		CoverageScore:     coverageScore,
		TopicsInContent:   len(topicsInContent),
		TopicsCovered:     len(covered),
		MissingTopics:     missing,
		HallucinationRisk: hallucinationRisk,
		UniqueWordsCount:  len(uniqueToScript),
		Recommendations:   recommendations,
		Passed:            qualityScore >= passThreshold,
		Strategy:          metrics.Strategy,
		MessageCount:      metrics.MessageCount,
	}
}

// placeholderPatterns match the family of bracket-and-ellipsis
// placeholder markers an LLM sometimes leaves behind instead of actual
// content — "[continue...]", "[TODO]", "...". Unlike the advisory
// quality score, a placeholder hit is a hard gate: the script must be
// regenerated, never published.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[\s*(continue|todo|more content|placeholder|to be (continued|added|completed))\s*.*?\]`),
	regexp.MustCompile(`(?i)\.\.\.\s*\[.*?\]\s*$`),
	regexp.MustCompile(`(?i)\[insert.*?\]`),
	// bracket- and brace-wrapped name placeholders left unfilled, in
	// either language: "[name]", "[שם]", "{name}".
	regexp.MustCompile(`(?i)[\[\{]\s*(name|שם)\s*[\]\}]`),
	// a bare TBD/TODO token outside any markup brackets.
	regexp.MustCompile(`(?i)\bTBD\b`),
	regexp.MustCompile(`(?i)\bTODO\b`),
	// a run of underscores standing in for omitted text.
	regexp.MustCompile(`_{3,}`),
}

// ContainsPlaceholder reports whether script contains an unresolved
// placeholder marker, which must block publication regardless of
// QualityScore.
func ContainsPlaceholder(script string) bool {
	for _, p := range placeholderPatterns {
		if p.MatchString(script) {
			return true
		}
	}
	return false
}

func extractTopics(text string) map[string]bool {
	lower := strings.ToLower(text)
	found := map[string]bool{}
	for _, ind := range topicIndicators {
		if strings.Contains(lower, strings.ToLower(ind)) {
			found[strings.ToLower(ind)] = true
		}
	}
	return found
}

func intersect(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

// tokenizeSet strips TTS/markup brackets, then extracts word tokens of
// at least 3 runes, matching ScriptValidator._tokenize.
func tokenizeSet(text string) map[string]bool {
	stripped := markupBracketPattern.ReplaceAllString(text, "")
	stripped = markupAngleePattern.ReplaceAllString(stripped, "")
	stripped = strings.ToLower(stripped)

	words := wordPattern.FindAllString(stripped, -1)
	out := map[string]bool{}
	for _, w := range words {
		if len([]rune(w)) >= 3 {
			out[w] = true
		}
	}
	return out
}

func joinMessageText(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
