package persona_test

import (
	"testing"

	"github.com/biioon/reforco-escolar/internal/persona"
)

func TestParse(t *testing.T) {
	t.Parallel()

	for _, p := range persona.All() {
		parsed, err := persona.Parse(p.String())
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", p, err)
		}
		if parsed != p {
			t.Errorf("Parse(%q) = %q", p, parsed)
		}
	}

	for _, s := range []string{"", "robo", "PROFESSOR", "professor "} {
		if _, err := persona.Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, expected error", s)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, p := range persona.All() {
		prompt := p.SystemPrompt()
		if prompt == "" {
			t.Errorf("persona %q has empty system prompt", p)
		}
		if prompt == persona.DefaultSystemPrompt {
			t.Errorf("persona %q falls back to the default prompt", p)
		}
		if seen[prompt] {
			t.Errorf("persona %q shares a system prompt with another persona", p)
		}
		seen[prompt] = true
	}

	if persona.Persona("robo").SystemPrompt() != persona.DefaultSystemPrompt {
		t.Error("unknown persona should use the default educational framing")
	}
}
