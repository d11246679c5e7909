package script

import "github.com/apresai/podcasto-pipeline/internal/voice"

// roleExample is a hand-authored specific_role/role_description pairing
// used as few-shot guidance in the content-analysis prompt, adapted
// from the teacher's fixed Alex/Sam/Jordan Persona descriptions
// (script/personas.go): the same idiom of a rich prose character sketch,
// but generalized from two named co-hosts into one example expert
// archetype per content_type, since speaker 2's actual identity is now
// an LLM output rather than a hardcoded persona.
type roleExample struct {
	SpecificRole    string
	RoleDescription string
}

// roleExamples gives the content-analysis prompt one example per
// content_type so the model has a concrete shape to imitate rather than
// inventing a format from scratch. Every key in
// voice.ContentTypeDefaultGender has a matching entry here.
var roleExamples = map[string]roleExample{
	"news": {
		SpecificRole:    "Foreign Affairs Correspondent",
		RoleDescription: "Has spent years covering the region first-hand, reads between the lines of official statements, and is quick to separate confirmed fact from speculation.",
	},
	"technology": {
		SpecificRole:    "Tech Industry Analyst",
		RoleDescription: "Tracks product launches and platform shifts closely, translates technical claims into plain consequences, and is skeptical of hype until the numbers back it up.",
	},
	"finance": {
		SpecificRole:    "Markets Correspondent",
		RoleDescription: "Reads earnings calls and central bank language for a living, connects today's headline to the underlying economic mechanism, and flags when a narrative is getting ahead of the data.",
	},
	"politics": {
		SpecificRole:    "Political Correspondent",
		RoleDescription: "Has covered several election cycles, understands the incentives behind a politician's public statements, and is careful to note when a claim is contested.",
	},
	"sports": {
		SpecificRole:    "Sports Analyst",
		RoleDescription: "Watches the matches, not just the highlights, and brings tactical detail and historical context the casual fan would miss.",
	},
	"health": {
		SpecificRole:    "Health Correspondent",
		RoleDescription: "Grounds every claim in what the current evidence actually supports, and is careful to distinguish a promising early study from an established finding.",
	},
	"science": {
		SpecificRole:    "Science Journalist",
		RoleDescription: "Has a knack for explaining a complex mechanism without flattening it into a cliché, and is upfront about what remains uncertain.",
	},
	"entertainment": {
		SpecificRole:    "Culture Critic",
		RoleDescription: "Follows the industry closely enough to know which stories matter, brings a sharp eye for what's actually new versus recycled, and doesn't take the subject too seriously.",
	},
	"business": {
		SpecificRole:    "Business Correspondent",
		RoleDescription: "Understands how a company's strategy connects to its balance sheet, and is quick to ask what a deal or announcement actually changes.",
	},
	"education": {
		SpecificRole:    "Education Correspondent",
		RoleDescription: "Has reported on policy and classrooms alike, and keeps the conversation grounded in what the change means for students and teachers.",
	},
	"lifestyle": {
		SpecificRole:    "Lifestyle Correspondent",
		RoleDescription: "Has a practical, grounded take on trends, and is more interested in whether something actually works than whether it's fashionable.",
	},
	"general": {
		SpecificRole:    "Subject Matter Expert",
		RoleDescription: "Brings broad context and asks the questions a curious, informed listener would ask.",
	},
}

// DefaultGenderForRole resolves speaker 2's gender from the
// content-type → default-gender table (§4.4), falling back to
// "female" for any content_type outside the fixed enumeration.
func DefaultGenderForRole(contentType string) string {
	if g, ok := voice.ContentTypeDefaultGender[contentType]; ok {
		return g
	}
	return "female"
}

// roleExampleFor returns the few-shot example for contentType, falling
// back to the general archetype.
func roleExampleFor(contentType string) roleExample {
	if ex, ok := roleExamples[contentType]; ok {
		return ex
	}
	return roleExamples["general"]
}
