package naming

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// For any inputs, generated names contain only [a-z0-9-], never start or end
// with a dash, and are stable under re-normalization.
func TestPropertyResourceNamesAreCloudSafe(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		app := rapid.String().Draw(t, "app")
		resource := rapid.String().Draw(t, "resource")
		stage := rapid.String().Draw(t, "stage")

		name := ResourceName(app, resource, stage)

		for _, r := range name {
			if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
				t.Fatalf("unsafe rune %q in %q", r, name)
			}
		}
		if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
			t.Fatalf("name has leading/trailing dash: %q", name)
		}
		if strings.Contains(name, "--") {
			t.Fatalf("name has doubled dash: %q", name)
		}
		if again := ResourceName(app, resource, stage); again != name {
			t.Fatalf("non-deterministic name: %q vs %q", name, again)
		}
	})
}
