package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
)

func baseConfig() Config {
	return Config{
		BaseURL:              "https://openrouter.ai/api/v1",
		APIKey:               "sk-test",
		Model:                "google/gemini-2.5-flash",
		MaxCompletionToken:   2000,
		Temperature:          0.5,
		Timeout:              time.Minute,
		PlannerTemperature:   -1,
		ChecklistTemperature: -1,
		BudgetTemperature:    -1,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	noKey := baseConfig()
	noKey.APIKey = "   "
	if err := noKey.Validate(); !errors.Is(err, contract.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing key, got %v", err)
	}

	noModel := baseConfig()
	noModel.Model = ""
	if err := noModel.Validate(); !errors.Is(err, contract.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing model, got %v", err)
	}
}

func TestOpenRouterForDefaults(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	out := cfg.OpenRouterFor(contract.TaskChecklist)

	if out.Model != cfg.Model {
		t.Fatalf("expected shared default model, got %q", out.Model)
	}
	if out.Temperature != cfg.Temperature {
		t.Fatalf("expected shared default temperature, got %v", out.Temperature)
	}
	if out.MaxCompletionToken == nil || *out.MaxCompletionToken != cfg.MaxCompletionToken {
		t.Fatalf("unexpected completion token limit: %v", out.MaxCompletionToken)
	}
}

func TestOpenRouterForPerTaskOverrides(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.PlannerModel = "anthropic/claude-sonnet-4"
	cfg.PlannerTemperature = 0.2
	cfg.BudgetTemperature = 0

	planner := cfg.OpenRouterFor(contract.TaskPlanner)
	if planner.Model != "anthropic/claude-sonnet-4" {
		t.Fatalf("planner model override ignored: %q", planner.Model)
	}
	if planner.Temperature != 0.2 {
		t.Fatalf("planner temperature override ignored: %v", planner.Temperature)
	}

	budget := cfg.OpenRouterFor(contract.TaskBudget)
	if budget.Model != cfg.Model {
		t.Fatalf("budget must fall back to the shared model, got %q", budget.Model)
	}
	if budget.Temperature != 0 {
		t.Fatalf("a zero temperature override is valid, got %v", budget.Temperature)
	}
}
