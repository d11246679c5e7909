package content

import "testing"

func TestScoreMessageKeywordTiers(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
	}{
		{"critical keyword", "The minister announced a deal today.", scoreCritical},
		{"high keyword", "Trump met with officials.", scoreHigh},
		{"medium keyword", "Activists staged a protest downtown.", scoreMedium},
		{"low keyword", "The film won an award at the ceremony.", scoreLow},
		{"no keyword short", "hi there", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scoreMessage(tc.text)
			if got < tc.want {
				t.Errorf("scoreMessage(%q) = %d, want at least %d", tc.text, got, tc.want)
			}
		})
	}
}

func TestScoreMessageBoosts(t *testing.T) {
	withDigits := scoreMessage("there were 42 reported")
	withoutDigits := scoreMessage("there were many reported")
	if withDigits <= withoutDigits {
		t.Errorf("digit boost not applied: %d vs %d", withDigits, withoutDigits)
	}

	withQuote := scoreMessage(`she said "it is over"`)
	withoutQuote := scoreMessage("she said it is over")
	if withQuote <= withoutQuote {
		t.Errorf("quote boost not applied: %d vs %d", withQuote, withoutQuote)
	}
}

func TestSelectPriorityMessagesKeepsTopScoringAndChronology(t *testing.T) {
	messages := []Message{
		{Text: "a ceremony was held", Date: "2024-01-03"},
		{Text: "the minister signed a deal", Date: "2024-01-01"},
		{Text: "nothing much happened", Date: "2024-01-02"},
	}

	selected := SelectPriorityMessages(messages, 0.5, nil)
	if len(selected) < 1 {
		t.Fatalf("expected at least one message selected")
	}
	// The highest-scoring message (the deal) must survive a 50% cutoff.
	found := false
	for _, m := range selected {
		if m.Text == "the minister signed a deal" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected top-scoring message to survive cutoff, got %+v", selected)
	}

	for i := 1; i < len(selected); i++ {
		if selected[i-1].Date > selected[i].Date {
			t.Errorf("selected messages not in chronological order: %+v", selected)
		}
	}
}

func TestSelectPriorityMessagesMinimumOne(t *testing.T) {
	messages := []Message{{Text: "only one"}}
	selected := SelectPriorityMessages(messages, 0.1, nil)
	if len(selected) != 1 {
		t.Fatalf("expected at least 1 message kept, got %d", len(selected))
	}
}

func TestSelectPriorityMessagesDefaultPercentage(t *testing.T) {
	messages := make([]Message, 10)
	for i := range messages {
		messages[i] = Message{Text: "filler"}
	}
	selected := SelectPriorityMessages(messages, 0, nil)
	if len(selected) != 7 {
		t.Fatalf("expected default 70%% cutoff to keep 7 of 10, got %d", len(selected))
	}
}
