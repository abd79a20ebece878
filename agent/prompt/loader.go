package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/checklist.txt
	checklistRaw string

	//go:embed template/budget.txt
	budgetRaw string

	//go:embed template/repair.txt
	repairRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Planner   string
	Checklist string
	Budget    string
	Repair    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Planner:   strings.TrimSpace(plannerRaw),
		Checklist: strings.TrimSpace(checklistRaw),
		Budget:    strings.TrimSpace(budgetRaw),
		Repair:    strings.TrimSpace(repairRaw),
	}
}
