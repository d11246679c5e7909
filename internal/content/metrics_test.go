package content

import "testing"

func TestAnalyzeStrategySelection(t *testing.T) {
	cases := []struct {
		name     string
		count    int
		wantCat  Category
		wantStr  Strategy
		wantRatio float64
	}{
		{"empty", 0, CategoryLow, StrategyExpansion, maxRatio},
		{"low boundary", lowContentThreshold, CategoryLow, StrategyExpansion, maxRatio},
		{"medium", 10, CategoryMedium, StrategyBalanced, idealRatio},
		{"high boundary", highContentThreshold, CategoryHigh, StrategyCompression, minRatio},
		{"well above high", 50, CategoryHigh, StrategyCompression, minRatio},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			messages := make([]Message, tc.count)
			for i := range messages {
				messages[i] = Message{Text: "hello world"}
			}
			m := Analyze(messages, nil)
			if m.Category != tc.wantCat {
				t.Errorf("category = %q, want %q", m.Category, tc.wantCat)
			}
			if m.Strategy != tc.wantStr {
				t.Errorf("strategy = %q, want %q", m.Strategy, tc.wantStr)
			}
			if m.TargetRatio != tc.wantRatio {
				t.Errorf("target ratio = %v, want %v", m.TargetRatio, tc.wantRatio)
			}
		})
	}
}

func TestAnalyzeCharCounts(t *testing.T) {
	messages := []Message{{Text: "abc"}, {Text: "defgh"}}
	m := Analyze(messages, nil)
	if m.TotalChars != 8 {
		t.Fatalf("total chars = %d, want 8", m.TotalChars)
	}
	if m.AvgCharsPerMessage != 4 {
		t.Fatalf("avg chars = %v, want 4", m.AvgCharsPerMessage)
	}
	// 8 chars at the expansion ratio 1.20 is 9.6, truncated to 9.
	if m.TargetScriptChars != 9 {
		t.Fatalf("target script chars = %d, want %d", m.TargetScriptChars, 9)
	}
}
