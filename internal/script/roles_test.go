package script

import (
	"testing"

	"github.com/apresai/podcasto-pipeline/internal/voice"
)

func TestDefaultGenderForRoleMatchesVoiceTable(t *testing.T) {
	for contentType, want := range voice.ContentTypeDefaultGender {
		if got := DefaultGenderForRole(contentType); got != want {
			t.Errorf("DefaultGenderForRole(%q) = %q, want %q", contentType, got, want)
		}
	}
}

func TestDefaultGenderForRoleUnknownFallsBackToFemale(t *testing.T) {
	if got := DefaultGenderForRole("underwater-basket-weaving"); got != "female" {
		t.Errorf("DefaultGenderForRole(unknown) = %q, want %q", got, "female")
	}
}

func TestRoleExampleForKnownContentTypes(t *testing.T) {
	for contentType := range voice.ContentTypeDefaultGender {
		ex := roleExampleFor(contentType)
		if ex.SpecificRole == "" || ex.RoleDescription == "" {
			t.Errorf("roleExampleFor(%q) returned an incomplete example: %+v", contentType, ex)
		}
	}
}

func TestRoleExampleForUnknownFallsBackToGeneral(t *testing.T) {
	got := roleExampleFor("underwater-basket-weaving")
	want := roleExamples["general"]
	if got != want {
		t.Errorf("roleExampleFor(unknown) = %+v, want general example %+v", got, want)
	}
}
