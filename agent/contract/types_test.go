package contract

import (
	"errors"
	"testing"
)

func TestNewPlanningRequestNormalizes(t *testing.T) {
	t.Parallel()

	req, err := NewPlanningRequest("  Kyoto  ", 3,
		Money{Amount: 5000, Currency: "cny"},
		[]string{" Culture ", "food", "culture", "", "FOOD"},
		" Tokyo ")
	if err != nil {
		t.Fatalf("NewPlanningRequest() error = %v", err)
	}

	if req.Destination != "Kyoto" {
		t.Fatalf("destination not trimmed: %q", req.Destination)
	}
	if req.Budget.Currency != "CNY" {
		t.Fatalf("currency not upper-cased: %q", req.Budget.Currency)
	}
	if req.Origin != "Tokyo" {
		t.Fatalf("origin not trimmed: %q", req.Origin)
	}
	if len(req.Preferences) != 2 || req.Preferences[0] != "culture" || req.Preferences[1] != "food" {
		t.Fatalf("preferences not deduped in order: %v", req.Preferences)
	}
}

func TestNewPlanningRequestRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		destination string
		days        int
		budget      Money
	}{
		{"empty destination", "  ", 3, Money{Amount: 100, Currency: "CNY"}},
		{"zero days", "Kyoto", 0, Money{Amount: 100, Currency: "CNY"}},
		{"negative budget", "Kyoto", 3, Money{Amount: -1, Currency: "CNY"}},
		{"missing currency", "Kyoto", 3, Money{Amount: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewPlanningRequest(tc.destination, tc.days, tc.budget, nil, "")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestParseTaskType(t *testing.T) {
	t.Parallel()

	task, err := ParseTaskType("  Planner ")
	if err != nil || task != TaskPlanner {
		t.Fatalf("ParseTaskType() = %v, %v", task, err)
	}
	if _, err := ParseTaskType("concierge"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAggregatedResponseResult(t *testing.T) {
	t.Parallel()

	resp := AggregatedResponse{
		Results: []AgentResult{
			{Task: TaskPlanner, Status: StatusValid},
			{Task: TaskBudget, Status: StatusFailed},
		},
	}

	if res, ok := resp.Result(TaskBudget); !ok || res.Status != StatusFailed {
		t.Fatalf("unexpected budget result: %#v (%v)", res, ok)
	}
	if _, ok := resp.Result(TaskChecklist); ok {
		t.Fatal("absent tasks must report false")
	}
}

func TestToolResultFailed(t *testing.T) {
	t.Parallel()

	if (ToolResult{Tool: "weather"}).Failed() {
		t.Fatal("result without an error marker must not be failed")
	}
	if !(ToolResult{Tool: "weather", Err: "boom"}).Failed() {
		t.Fatal("result with an error marker must be failed")
	}
}
