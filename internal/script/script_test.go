package script

import (
	"strings"
	"testing"
)

func TestExtractJSONObjectStripsMarkdownFence(t *testing.T) {
	raw := "Sure thing:\n```json\n{\"content_type\": \"news\"}\n```\nHope that helps."
	got := extractJSONObject(raw)
	if got != `{"content_type": "news"}` {
		t.Errorf("extractJSONObject = %q", got)
	}
}

func TestExtractJSONObjectFallsBackToBraceSlice(t *testing.T) {
	raw := "here you go: {\"topics\": [\"a\", \"b\"]} thanks"
	got := extractJSONObject(raw)
	if got != `{"topics": ["a", "b"]}` {
		t.Errorf("extractJSONObject = %q", got)
	}
}

func TestParseContentAnalysis(t *testing.T) {
	raw := `{"content_type":"technology","specific_role":"Tech Industry Analyst","role_description":"...","confidence":0.9,"reasoning":"because"}`
	a, err := parseContentAnalysis(raw)
	if err != nil {
		t.Fatalf("parseContentAnalysis: %v", err)
	}
	if a.ContentType != "technology" || a.Confidence != 0.9 {
		t.Errorf("unexpected analysis: %+v", a)
	}
}

func TestParseContentAnalysisRejectsMissingContentType(t *testing.T) {
	if _, err := parseContentAnalysis(`{"confidence": 0.5}`); err == nil {
		t.Fatal("expected error for missing content_type")
	}
}

func TestParseContentAnalysisRejectsGarbage(t *testing.T) {
	if _, err := parseContentAnalysis("not json at all"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestParseTopicAnalysis(t *testing.T) {
	raw := `{"topics":["a","b","c"],"conversation_structure":"linear","transition_style":"seamless"}`
	ta, err := parseTopicAnalysis(raw)
	if err != nil {
		t.Fatalf("parseTopicAnalysis: %v", err)
	}
	if len(ta.Topics) != 3 || ta.ConversationStructure != "linear" {
		t.Errorf("unexpected topic analysis: %+v", ta)
	}
}

func TestParseTopicAnalysisRejectsEmptyTopics(t *testing.T) {
	if _, err := parseTopicAnalysis(`{"topics":[],"conversation_structure":"linear"}`); err == nil {
		t.Fatal("expected error for empty topics")
	}
}

func TestValidateDraftAcceptsTwoSpeakerScript(t *testing.T) {
	opts := GenerateOptions{Speaker1Role: "Host", Speaker2Role: "Tech Industry Analyst"}
	text := "Host: Welcome to the show.\nTech Industry Analyst: Thanks for having me.\n"
	if err := validateDraft(text, opts); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateDraftAcceptsSingleSpeakerScript(t *testing.T) {
	opts := GenerateOptions{Speaker1Role: "Host"}
	text := "Host: This is a monologue.\nHost: It continues here.\n"
	if err := validateDraft(text, opts); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateDraftRejectsEmpty(t *testing.T) {
	opts := GenerateOptions{Speaker1Role: "Host"}
	if err := validateDraft("   ", opts); err == nil {
		t.Fatal("expected error for empty draft")
	}
}

func TestValidateDraftRejectsMissingSpeaker2(t *testing.T) {
	opts := GenerateOptions{Speaker1Role: "Host", Speaker2Role: "Analyst"}
	text := "Host: Talking to myself here.\n"
	if err := validateDraft(text, opts); err == nil {
		t.Fatal("expected error for missing speaker 2 role label")
	}
}

func TestModelDisplayNameKnownAndUnknown(t *testing.T) {
	if got := ModelDisplayName("haiku"); !strings.Contains(got, "claude") {
		t.Errorf("ModelDisplayName(haiku) = %q", got)
	}
	if got := ModelDisplayName("mystery-model"); got != "mystery-model" {
		t.Errorf("ModelDisplayName(unknown) = %q", got)
	}
}

func TestNewGeneratorRejectsUnknownModel(t *testing.T) {
	if _, err := NewGenerator("not-a-model", ""); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestNewGeneratorBuildsExpectedBackends(t *testing.T) {
	if _, err := NewGenerator("haiku", ""); err != nil {
		t.Errorf("haiku: %v", err)
	}
	if _, err := NewGenerator("gemini-pro", ""); err != nil {
		t.Errorf("gemini-pro: %v", err)
	}
}
