package script

import (
	"fmt"
	"strings"

	"github.com/apresai/podcasto-pipeline/internal/content"
	"github.com/apresai/podcasto-pipeline/internal/episode"
)

const contentTypeEnum = "news, technology, finance, politics, sports, health, science, entertainment, business, education, lifestyle, general"

const conversationStructureEnum = "single_topic, linear, thematic_clusters, narrative_arc"

const transitionStyleEnum = "seamless, explicit, narrative, contrast"

// buildContentAnalysisPrompt assembles the first LLM call's prompt:
// classify the content and propose speaker 2's role.
func buildContentAnalysisPrompt(extractedText string) string {
	example := roleExampleFor("general")
	var b strings.Builder
	b.WriteString("Classify the following content and respond with a single JSON object, no surrounding prose.\n\n")
	b.WriteString("Required fields:\n")
	fmt.Fprintf(&b, "  content_type: one of [%s]\n", contentTypeEnum)
	b.WriteString("  specific_role: a free-form expert title for a second speaker who could credibly discuss this content, e.g. \"")
	b.WriteString(example.SpecificRole)
	b.WriteString("\"\n")
	b.WriteString("  role_description: one or two sentences describing that speaker's perspective and background, e.g. \"")
	b.WriteString(example.RoleDescription)
	b.WriteString("\"\n")
	b.WriteString("  confidence: a number between 0 and 1\n")
	b.WriteString("  reasoning: a brief explanation of the classification\n\n")
	b.WriteString("Content:\n")
	b.WriteString(truncateForAnalysis(extractedText))
	return b.String()
}

// buildTopicAnalysisPrompt assembles the second LLM call's prompt:
// derive the conversation's structural shape from the content and the
// first call's classification.
func buildTopicAnalysisPrompt(extractedText string, analysis episode.Analysis) string {
	var b strings.Builder
	b.WriteString("Analyze the topic structure of the following content, already classified as ")
	b.WriteString(analysis.ContentType)
	b.WriteString(". Respond with a single JSON object, no surrounding prose.\n\n")
	b.WriteString("Required fields:\n")
	b.WriteString("  topics: an array of the 3-7 most important topics covered, as short phrases\n")
	fmt.Fprintf(&b, "  conversation_structure: one of [%s]\n", conversationStructureEnum)
	fmt.Fprintf(&b, "  transition_style: one of [%s]\n\n", transitionStyleEnum)
	b.WriteString("Content:\n")
	b.WriteString(truncateForAnalysis(extractedText))
	return b.String()
}

// buildDraftSystemPrompt assembles the drafting call's system prompt:
// the dialogue-format contract and TTS markup vocabulary (§4.4), kept
// separate from the per-episode instructions in buildDraftUserPrompt so
// callers that support a system/user split (Claude, Nova) can pin it.
func buildDraftSystemPrompt(opts GenerateOptions) string {
	var b strings.Builder
	b.WriteString("You write natural, engaging podcast dialogue scripts.\n\n")
	b.WriteString("Output format: plain dialogue lines only, each prefixed by a role label and a colon, ")
	b.WriteString("for example:\n")
	fmt.Fprintf(&b, "%s: ...\n", opts.Speaker1Role)
	if opts.Speaker2Role != "" {
		fmt.Fprintf(&b, "%s: ...\n", opts.Speaker2Role)
	}
	b.WriteString("\nDo not use speaker names, only the role labels above. Do not include any metadata, ")
	b.WriteString("scene directions, or surrounding prose — the output is synthesized directly to speech.\n\n")
	b.WriteString("Use TTS markup tokens to guide delivery where natural: [pause] for a beat of silence, ")
	b.WriteString("[emphasis]...[/emphasis] to stress a phrase, and emotion tags like [excited], [thoughtful], ")
	b.WriteString("[laughing] to color a line's delivery. Use them sparingly — most lines need none.\n")
	return b.String()
}

// buildDraftUserPrompt assembles the drafting call's per-episode
// instructions: the content analysis, topic structure, target
// length/coverage directive, and the prioritized content itself.
func buildDraftUserPrompt(opts GenerateOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Podcast: %s\n", opts.PodcastName)
	fmt.Fprintf(&b, "Language: %s\n", opts.Language)
	fmt.Fprintf(&b, "Target duration: %d minutes\n\n", opts.TargetDurationMinutes)

	b.WriteString("Content analysis:\n")
	fmt.Fprintf(&b, "  content_type: %s\n", opts.ContentAnalysis.ContentType)
	if opts.Speaker2Role != "" {
		fmt.Fprintf(&b, "  speaker 2 (%s): %s\n", opts.Speaker2Role, opts.ContentAnalysis.RoleDescription)
	}
	fmt.Fprintf(&b, "  reasoning: %s\n\n", opts.ContentAnalysis.Reasoning)

	b.WriteString("Topic structure:\n")
	fmt.Fprintf(&b, "  topics: %s\n", strings.Join(opts.TopicAnalysis.Topics, ", "))
	fmt.Fprintf(&b, "  conversation_structure: %s\n", opts.TopicAnalysis.ConversationStructure)
	fmt.Fprintf(&b, "  transition_style: %s\n\n", opts.TopicAnalysis.TransitionStyle)

	b.WriteString(lengthDirective(opts.Metrics))
	b.WriteString("\n\n")

	if opts.Speaker2Role == "" {
		b.WriteString("This is a single-speaker episode: write it as a monologue under the ")
		fmt.Fprintf(&b, "%s role label only.\n\n", opts.Speaker1Role)
	} else {
		fmt.Fprintf(&b, "Speaker roles: %s and %s. Keep their contributions balanced.\n\n", opts.Speaker1Role, opts.Speaker2Role)
	}

	b.WriteString("Source content, in priority order:\n")
	for _, m := range opts.PrioritizedContent {
		b.WriteString("- ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}

	return b.String()
}

// lengthDirective turns the content-metrics strategy into an explicit
// compression/expansion instruction for the drafting prompt.
func lengthDirective(m content.Metrics) string {
	switch m.Strategy {
	case content.StrategyCompression:
		return fmt.Sprintf(
			"This content is dense (%d messages): compress it. Cover the main topics only, at a summary level of detail, "+
				"aiming for roughly %d characters of dialogue total.",
			m.MessageCount, m.TargetScriptChars,
		)
	case content.StrategyExpansion:
		return fmt.Sprintf(
			"This content is sparse (%d messages): expand it. Elaborate on each point with detail and context, "+
				"aiming for roughly %d characters of dialogue total.",
			m.MessageCount, m.TargetScriptChars,
		)
	default:
		return fmt.Sprintf(
			"Cover most topics at a moderate level of detail, aiming for roughly %d characters of dialogue total.",
			m.TargetScriptChars,
		)
	}
}

func maxTokensForDuration(minutes int) int64 {
	switch {
	case minutes >= 45:
		return 32768
	case minutes >= 20:
		return 24576
	default:
		return 8192
	}
}
