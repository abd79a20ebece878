package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Check inspects a decoded payload against its task-specific structural
// invariants. A nil error means the payload is schema-valid.
type Check[T any] func(*T) error

// BudgetSumTolerance is the allowed relative drift between the category sum
// and the requested total.
const BudgetSumTolerance = 0.01

func decode[T any](raw string) (*T, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty model output", contract.ErrSchemaViolation)
	}
	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", contract.ErrSchemaViolation, err)
	}
	if err := structValidator.Struct(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrSchemaViolation, err)
	}
	return &out, nil
}

// stripFences drops markdown code fences and any prose around the outermost
// JSON object, which chat models like to add.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	end := strings.LastIndexAny(s, "}]")
	if end < start {
		return ""
	}
	return s[start : end+1]
}

// ItineraryCheck requires day entries to cover exactly 1..days.
func ItineraryCheck(days int) Check[contract.ItineraryPayload] {
	return func(p *contract.ItineraryPayload) error {
		if len(p.Days) != days {
			return fmt.Errorf("%w: itinerary has %d day entries, want %d", contract.ErrSchemaViolation, len(p.Days), days)
		}
		seen := make(map[int]bool, days)
		for _, d := range p.Days {
			if d.Day < 1 || d.Day > days {
				return fmt.Errorf("%w: day %d out of range 1..%d", contract.ErrSchemaViolation, d.Day, days)
			}
			if seen[d.Day] {
				return fmt.Errorf("%w: duplicate day %d", contract.ErrSchemaViolation, d.Day)
			}
			seen[d.Day] = true
			if len(d.Activities) == 0 {
				return fmt.Errorf("%w: day %d has no activities", contract.ErrSchemaViolation, d.Day)
			}
		}
		return nil
	}
}

// ChecklistCheck requires non-empty categories and a consistent item count.
func ChecklistCheck() Check[contract.ChecklistPayload] {
	return func(p *contract.ChecklistPayload) error {
		total := 0
		for name, items := range p.Categories {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("%w: checklist has an unnamed category", contract.ErrSchemaViolation)
			}
			if len(items) == 0 {
				return fmt.Errorf("%w: category %q is empty", contract.ErrSchemaViolation, name)
			}
			total += len(items)
		}
		if p.TotalItems != 0 && p.TotalItems != total {
			return fmt.Errorf("%w: total_items=%d but categories hold %d items", contract.ErrSchemaViolation, p.TotalItems, total)
		}
		return nil
	}
}

// BudgetCheck requires the fixed category set with non-negative amounts
// summing to within tolerance of the requested total.
func BudgetCheck(total float64, currency string) Check[contract.BudgetPayload] {
	return func(p *contract.BudgetPayload) error {
		if len(p.Lines) != len(contract.BudgetCategories) {
			return fmt.Errorf("%w: budget has %d lines, want the fixed categories %v",
				contract.ErrSchemaViolation, len(p.Lines), contract.BudgetCategories)
		}
		sum := 0.0
		for _, category := range contract.BudgetCategories {
			amount, ok := p.Lines[category]
			if !ok {
				return fmt.Errorf("%w: budget line %q is missing", contract.ErrSchemaViolation, category)
			}
			if amount < 0 {
				return fmt.Errorf("%w: budget line %q is negative", contract.ErrSchemaViolation, category)
			}
			sum += amount
		}
		if total > 0 && math.Abs(sum-total) > total*BudgetSumTolerance {
			return fmt.Errorf("%w: budget lines sum to %.2f, want %.2f within %.0f%%",
				contract.ErrSchemaViolation, sum, total, BudgetSumTolerance*100)
		}
		if currency != "" && !strings.EqualFold(p.Currency, currency) {
			return fmt.Errorf("%w: budget currency %q, want %q", contract.ErrSchemaViolation, p.Currency, currency)
		}
		return nil
	}
}
