package contract

import (
	"fmt"
	"strings"
	"time"
)

type TaskType string

const (
	TaskPlanner   TaskType = "planner"
	TaskChecklist TaskType = "checklist"
	TaskBudget    TaskType = "budget"
)

// AllTasks is the default dispatch selection, in dependency order.
func AllTasks() []TaskType {
	return []TaskType{TaskPlanner, TaskChecklist, TaskBudget}
}

func ParseTaskType(s string) (TaskType, error) {
	switch TaskType(strings.ToLower(strings.TrimSpace(s))) {
	case TaskPlanner:
		return TaskPlanner, nil
	case TaskChecklist:
		return TaskChecklist, nil
	case TaskBudget:
		return TaskBudget, nil
	default:
		return "", fmt.Errorf("%w: unknown task type %q", ErrValidation, s)
	}
}

// Money is an amount in a single ISO 4217 currency code.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PlanningRequest is the single request surface: plan a trip.
// Immutable once built; NewPlanningRequest normalizes and checks it.
type PlanningRequest struct {
	Destination string   `json:"destination"`
	Days        int      `json:"days"`
	Budget      Money    `json:"budget"`
	Preferences []string `json:"preferences,omitempty"`
	Origin      string   `json:"origin,omitempty"`
}

func NewPlanningRequest(destination string, days int, budget Money, preferences []string, origin string) (PlanningRequest, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return PlanningRequest{}, fmt.Errorf("%w: destination is required", ErrValidation)
	}
	if days <= 0 {
		return PlanningRequest{}, fmt.Errorf("%w: days must be > 0, got %d", ErrValidation, days)
	}
	if budget.Amount <= 0 {
		return PlanningRequest{}, fmt.Errorf("%w: budget amount must be > 0", ErrValidation)
	}
	currency := strings.ToUpper(strings.TrimSpace(budget.Currency))
	if currency == "" {
		return PlanningRequest{}, fmt.Errorf("%w: budget currency is required", ErrValidation)
	}

	tags := make([]string, 0, len(preferences))
	seen := make(map[string]struct{}, len(preferences))
	for _, p := range preferences {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		tags = append(tags, p)
	}

	return PlanningRequest{
		Destination: destination,
		Days:        days,
		Budget:      Money{Amount: budget.Amount, Currency: currency},
		Preferences: tags,
		Origin:      strings.TrimSpace(origin),
	}, nil
}

// ToolRequest names a registered tool plus its call parameters.
type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult carries either a typed payload or a failure marker. A transient
// provider failure lands in Err rather than aborting the calling agent.
type ToolResult struct {
	Tool    string `json:"tool"`
	Payload any    `json:"payload,omitempty"`
	Err     string `json:"error,omitempty"`
}

func (r ToolResult) Failed() bool {
	return r.Err != ""
}

// WeatherReport is the weather tool payload.
type WeatherReport struct {
	Location     string  `json:"location"`
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_celsius"`
	HighC        float64 `json:"high_celsius"`
	LowC         float64 `json:"low_celsius"`
	Humidity     string  `json:"humidity,omitempty"`
}

// ExchangeRate is the currency tool payload.
type ExchangeRate struct {
	Base   string    `json:"base"`
	Target string    `json:"target"`
	Rate   float64   `json:"rate"`
	AsOf   time.Time `json:"as_of"`
}

// RouteOption is the route tool payload.
type RouteOption struct {
	Origin          string   `json:"origin"`
	Destination     string   `json:"destination"`
	SuggestedMode   string   `json:"suggested_mode"`
	DistanceKm      float64  `json:"distance_km"`
	DurationMinutes int      `json:"estimated_duration_minutes"`
	Tips            []string `json:"tips,omitempty"`
}

type ValidationStatus string

const (
	StatusValid    ValidationStatus = "valid"
	StatusRepaired ValidationStatus = "valid_after_repair"
	StatusFailed   ValidationStatus = "failed"
)

// ItineraryDay is one day of a planned trip. Day numbers must cover exactly
// 1..requested days with no duplicates or gaps.
type ItineraryDay struct {
	Day        int      `json:"day" validate:"required,gt=0"`
	Activities []string `json:"activities" validate:"required,min=1,dive,required"`
}

type ItineraryPayload struct {
	Destination string         `json:"destination"`
	Days        []ItineraryDay `json:"days" validate:"required,min=1,dive"`
	Tips        []string       `json:"tips,omitempty"`
}

type ChecklistPayload struct {
	Categories map[string][]string `json:"categories" validate:"required,min=1"`
	Essentials []string            `json:"essentials,omitempty"`
	TotalItems int                 `json:"total_items" validate:"gte=0"`
}

// BudgetCategories is the fixed category set of a budget breakdown.
var BudgetCategories = []string{"transport", "accommodation", "food", "tickets", "shopping"}

type BudgetPayload struct {
	Lines        map[string]float64 `json:"lines" validate:"required"`
	Total        float64            `json:"total" validate:"gt=0"`
	Currency     string             `json:"currency" validate:"required"`
	ExchangeRate float64            `json:"exchange_rate,omitempty"`
	Suggestions  []string           `json:"suggestions,omitempty"`
}

// AgentResult is the immutable outcome of one agent invocation.
type AgentResult struct {
	Task       TaskType         `json:"task"`
	Status     ValidationStatus `json:"status"`
	Payload    any              `json:"payload,omitempty"`
	Degraded   bool             `json:"degraded,omitempty"`
	Diagnostic string           `json:"diagnostic,omitempty"`
}

func FailedResult(task TaskType, diagnostic string) AgentResult {
	return AgentResult{Task: task, Status: StatusFailed, Diagnostic: diagnostic}
}

type OverallStatus string

const (
	OverallOK      OverallStatus = "ok"
	OverallPartial OverallStatus = "partial"
	OverallFailed  OverallStatus = "failed"
)

// AggregatedResponse is the terminal output of one dispatch cycle. Results
// appear only for the selected task types, in selection order.
type AggregatedResponse struct {
	SessionID string        `json:"session_id"`
	Status    OverallStatus `json:"status"`
	Results   []AgentResult `json:"results"`
}

// Result returns the result for a task type, if that task was selected.
func (r AggregatedResponse) Result(task TaskType) (AgentResult, bool) {
	for _, res := range r.Results {
		if res.Task == task {
			return res, true
		}
	}
	return AgentResult{}, false
}
