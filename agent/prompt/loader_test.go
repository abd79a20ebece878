package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	prompts := LoadPromptSet()

	cases := map[string]string{
		"planner":   prompts.Planner,
		"checklist": prompts.Checklist,
		"budget":    prompts.Budget,
		"repair":    prompts.Repair,
	}
	for name, content := range cases {
		if content == "" {
			t.Fatalf("%s prompt is empty", name)
		}
		if content != strings.TrimSpace(content) {
			t.Fatalf("%s prompt is not trimmed", name)
		}
		// The chat template treats braces as placeholders, so prompt text
		// must not contain any.
		if strings.ContainsAny(content, "{}") {
			t.Fatalf("%s prompt contains brace characters", name)
		}
	}
}
