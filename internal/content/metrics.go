// Package content ports the preprocessor's content-analysis pipeline:
// volume/strategy metrics, keyword-based message prioritization, and
// post-generation script quality validation.
package content

import "log/slog"

// Message is one collected content item — a Telegram post, a transcript
// line, whatever the collector captured. Date is an ISO-8601-ish string
// rather than time.Time because source content sometimes carries
// partial or malformed timestamps that must still sort stably.
type Message struct {
	Text string `json:"text"`
	Date string `json:"date,omitempty"`
}

// Strategy is the script-generation approach a given content volume
// calls for.
type Strategy string

const (
	StrategyExpansion   Strategy = "expansion"
	StrategyCompression Strategy = "compression"
	StrategyBalanced    Strategy = "balanced"
)

// Category buckets message volume into low/medium/high, matching the
// thresholds content_metrics.py uses to pick a Strategy.
type Category string

const (
	CategoryLow    Category = "low"
	CategoryMedium Category = "medium"
	CategoryHigh   Category = "high"
)

const (
	// lowContentThreshold and highContentThreshold bound the "medium"
	// band: at or below low, content is sparse enough to expand; at or
	// above high, it must be compressed.
	lowContentThreshold  = 5
	highContentThreshold = 20

	minRatio   = 0.80
	maxRatio   = 1.20
	idealRatio = 1.00
)

// Metrics is the result of analyzing a batch of content: how much there
// is, and what strategy/ratio/coverage the script generator should aim
// for.
type Metrics struct {
	MessageCount       int
	TotalChars         int
	AvgCharsPerMessage float64
	Category           Category
	Strategy           Strategy
	TargetRatio        float64
	TargetScriptChars  int
	CoverageMode       string
	DetailLevel        string
}

// Analyze computes Metrics for a batch of messages, matching
// ContentMetrics.analyze_content.
func Analyze(messages []Message, log *slog.Logger) Metrics {
	count := len(messages)

	totalChars := 0
	for _, m := range messages {
		totalChars += len([]rune(m.Text))
	}

	var avg float64
	if count > 0 {
		avg = float64(totalChars) / float64(count)
	}

	var category Category
	var strategy Strategy
	var targetRatio float64
	var coverageMode, detailLevel string

	switch {
	case count <= lowContentThreshold:
		category = CategoryLow
		strategy = StrategyExpansion
		targetRatio = maxRatio
		coverageMode = "comprehensive"
		detailLevel = "detailed"
	case count >= highContentThreshold:
		category = CategoryHigh
		strategy = StrategyCompression
		targetRatio = minRatio
		coverageMode = "selective"
		detailLevel = "summary"
	default:
		category = CategoryMedium
		strategy = StrategyBalanced
		targetRatio = idealRatio
		coverageMode = "balanced"
		detailLevel = "moderate"
	}

	m := Metrics{
		MessageCount:       count,
		TotalChars:         totalChars,
		AvgCharsPerMessage: avg,
		Category:           category,
		Strategy:           strategy,
		TargetRatio:        targetRatio,
		TargetScriptChars:  int(float64(totalChars) * targetRatio),
		CoverageMode:       coverageMode,
		DetailLevel:        detailLevel,
	}

	if log != nil {
		log.Info("content metrics analyzed",
			"message_count", m.MessageCount,
			"total_chars", m.TotalChars,
			"strategy", m.Strategy,
			"target_ratio", m.TargetRatio,
			"target_script_chars", m.TargetScriptChars,
			"coverage_mode", m.CoverageMode,
		)
	}

	return m
}
