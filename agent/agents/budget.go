package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
	"github.com/Pheglovog/travel-planner-agent/agent/memory"
	"github.com/Pheglovog/travel-planner-agent/agent/validate"
)

type budgetAgent struct {
	genRunner compose.Runnable[map[string]any, *schema.Message]
	pipeline  *validate.Pipeline[contract.BudgetPayload]
}

const budgetSchemaHint = `object with "lines" (object mapping exactly transport, accommodation, food, tickets, shopping to non-negative numbers summing to the requested total within 1 percent), "total" (number), "currency" (string), optional "exchange_rate" (number), optional "suggestions" (string array)`

// categoryWeights is the standard budget partition. Day count multiplies only
// the food and accommodation guidance; transport holds one-time costs.
var categoryWeights = map[string]float64{
	"transport":     0.30,
	"accommodation": 0.30,
	"food":          0.20,
	"tickets":       0.12,
	"shopping":      0.08,
}

func newBudget(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	repairPrompt string,
) (*budgetAgent, error) {
	genRunner, err := compileGenerationGraph(ctx, chatModel, systemPrompt, "budget.generation_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile budget graph: %v", contract.ErrModelInvoke, err)
	}
	pipeline, err := validate.NewPipeline[contract.BudgetPayload](
		ctx, contract.TaskBudget, chatModel, repairPrompt, budgetSchemaHint)
	if err != nil {
		return nil, err
	}
	return &budgetAgent{genRunner: genRunner, pipeline: pipeline}, nil
}

func (a *budgetAgent) Task() contract.TaskType {
	return contract.TaskBudget
}

func (a *budgetAgent) Run(
	ctx context.Context,
	req contract.PlanningRequest,
	mem *memory.Session,
	tools contract.ToolGateway,
) contract.AgentResult {
	_, _ = mem.Append(memory.RoleAgent, string(contract.TaskBudget),
		fmt.Sprintf("partitioning a %.0f %s budget across %d days", req.Budget.Amount, req.Budget.Currency, req.Days))

	facts := map[string]any{}

	// Cross-currency trips cannot be budgeted without a rate: unlike the
	// planner, a missing currency fact fails this agent.
	if local, cross := crossCurrency(req); cross {
		rate, ok, err := resolveRateFact(ctx, mem, tools, req.Budget.Currency, local)
		if err != nil {
			return contract.FailedResult(contract.TaskBudget, err.Error())
		}
		if !ok {
			return contract.FailedResult(contract.TaskBudget,
				fmt.Sprintf("%v: no %s->%s exchange rate available", contract.ErrToolFailure, req.Budget.Currency, local))
		}
		facts["exchange_rate"] = rate
		facts["local_currency"] = local
	}

	payload := map[string]any{
		"destination":  req.Destination,
		"days":         req.Days,
		"budget":       req.Budget,
		"preferences":  req.Preferences,
		"facts":        facts,
		"guidelines":   budgetGuidelines(req.Budget.Amount, req.Days),
		"conversation": conversationContext(mem),
	}

	raw, err := invokeGeneration(ctx, a.genRunner, payload)
	if err != nil {
		return contract.FailedResult(contract.TaskBudget, err.Error())
	}

	outcome := a.pipeline.Run(ctx, raw, validate.BudgetCheck(req.Budget.Amount, req.Budget.Currency))
	if outcome.Status == contract.StatusFailed {
		return contract.AgentResult{
			Task:       contract.TaskBudget,
			Status:     contract.StatusFailed,
			Diagnostic: outcome.Diagnostic,
		}
	}

	if content, err := json.Marshal(outcome.Value); err == nil {
		_, _ = mem.Append(memory.RoleAgent, string(contract.TaskBudget), string(content))
	}

	return contract.AgentResult{
		Task:    contract.TaskBudget,
		Status:  outcome.Status,
		Payload: *outcome.Value,
	}
}

// budgetGuidelines renders per-category amounts plus daily figures for the
// day-scaled lines.
func budgetGuidelines(total float64, days int) map[string]any {
	lines := make(map[string]float64, len(categoryWeights))
	for category, weight := range categoryWeights {
		lines[category] = round2(total * weight)
	}
	return map[string]any{
		"lines":               lines,
		"daily_food":          round2(lines["food"] / float64(days)),
		"daily_accommodation": round2(lines["accommodation"] / float64(days)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
