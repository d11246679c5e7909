package content

import "testing"

func TestValidateScriptHighQuality(t *testing.T) {
	messages := []Message{
		{Text: "The prime minister announced a ceasefire deal with Hamas today in Gaza."},
		{Text: "Hostages are expected to be released within a week under the agreement."},
	}
	metrics := Analyze(messages, nil)

	script := "Host: Big news out of Gaza today. [pause] The prime minister confirmed a ceasefire deal with Hamas.\n" +
		"Expert: Yes, and hostages are expected to be released within the week under the agreement."

	report := ValidateScript(messages, script, metrics)

	if report.CoverageScore <= 0 {
		t.Errorf("expected positive coverage score, got %v", report.CoverageScore)
	}
	if report.QualityScore <= 0 {
		t.Errorf("expected positive quality score, got %v", report.QualityScore)
	}
}

func TestValidateScriptFlagsLowCoverage(t *testing.T) {
	messages := []Message{
		{Text: "The prime minister announced a ceasefire deal with Hamas in Gaza."},
	}
	metrics := Analyze(messages, nil)

	script := "Host: Let's talk about something completely unrelated to the news today."

	report := ValidateScript(messages, script, metrics)
	if report.CoverageScore != 0 {
		t.Errorf("expected zero coverage for unrelated script, got %v", report.CoverageScore)
	}
	foundRec := false
	for _, r := range report.Recommendations {
		if r == "low topic coverage: missing key topics" {
			foundRec = true
		}
	}
	if !foundRec {
		t.Errorf("expected low-coverage recommendation, got %v", report.Recommendations)
	}
}

func TestValidateScriptPassThresholdConsistency(t *testing.T) {
	messages := []Message{{Text: "netanyahu met with trump about iran"}}
	metrics := Analyze(messages, nil)
	script := "netanyahu met with trump about iran hamas idf"
	report := ValidateScript(messages, script, metrics)
	if report.Passed != (report.QualityScore >= passThreshold) {
		t.Errorf("passed flag inconsistent with quality score: %+v", report)
	}
}

func TestContainsPlaceholder(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"todo marker", "Host: welcome to the show [TODO: add intro]", true},
		{"continue marker", "Host: and so the story goes... [continue]", true},
		{"clean script", "Host: welcome to the show, let's get started", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContainsPlaceholder(tc.text); got != tc.want {
				t.Errorf("ContainsPlaceholder(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
