package agents

import (
	"context"
	"encoding/json"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
	"github.com/Pheglovog/travel-planner-agent/agent/memory"
	"github.com/Pheglovog/travel-planner-agent/agent/tool"
	"github.com/Pheglovog/travel-planner-agent/agent/validate"
)

type checklistAgent struct {
	genRunner compose.Runnable[map[string]any, *schema.Message]
	pipeline  *validate.Pipeline[contract.ChecklistPayload]
}

const checklistSchemaHint = `object with "categories" (object mapping category names to non-empty string arrays), optional "essentials" (string array), "total_items" (integer matching the overall item count)`

func newChecklist(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	repairPrompt string,
) (*checklistAgent, error) {
	genRunner, err := compileGenerationGraph(ctx, chatModel, systemPrompt, "checklist.generation_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile checklist graph: %v", contract.ErrModelInvoke, err)
	}
	pipeline, err := validate.NewPipeline[contract.ChecklistPayload](
		ctx, contract.TaskChecklist, chatModel, repairPrompt, checklistSchemaHint)
	if err != nil {
		return nil, err
	}
	return &checklistAgent{genRunner: genRunner, pipeline: pipeline}, nil
}

func (a *checklistAgent) Task() contract.TaskType {
	return contract.TaskChecklist
}

func (a *checklistAgent) Run(
	ctx context.Context,
	req contract.PlanningRequest,
	mem *memory.Session,
	tools contract.ToolGateway,
) contract.AgentResult {
	_, _ = mem.Append(memory.RoleAgent, string(contract.TaskChecklist),
		fmt.Sprintf("building a packing list for %d days in %s", req.Days, req.Destination))

	degraded := false
	facts := map[string]any{}

	// The planner usually resolved this already; otherwise fetch it here.
	weather, ok, err := resolveStringFact(ctx, mem, tools,
		weatherFactKey(req.Destination), tool.ToolWeather,
		map[string]any{"location": req.Destination}, formatWeather)
	if err != nil {
		return contract.FailedResult(contract.TaskChecklist, err.Error())
	}
	if ok {
		facts["weather"] = weather
	} else {
		degraded = true
	}

	payload := map[string]any{
		"destination":      req.Destination,
		"days":             req.Days,
		"preferences":      req.Preferences,
		"facts":            facts,
		"base_item_counts": baseItemCounts(req.Days),
		"conversation":     conversationContext(mem),
	}

	raw, err := invokeGeneration(ctx, a.genRunner, payload)
	if err != nil {
		return contract.FailedResult(contract.TaskChecklist, err.Error())
	}

	outcome := a.pipeline.Run(ctx, raw, validate.ChecklistCheck())
	if outcome.Status == contract.StatusFailed {
		return contract.AgentResult{
			Task:       contract.TaskChecklist,
			Status:     contract.StatusFailed,
			Degraded:   degraded,
			Diagnostic: outcome.Diagnostic,
		}
	}

	if content, err := json.Marshal(outcome.Value); err == nil {
		_, _ = mem.Append(memory.RoleAgent, string(contract.TaskChecklist), string(content))
	}

	return contract.AgentResult{
		Task:     contract.TaskChecklist,
		Status:   outcome.Status,
		Payload:  *outcome.Value,
		Degraded: degraded,
	}
}

// baseItemCounts scales clothing quantities with the trip length.
func baseItemCounts(days int) map[string]int {
	return map[string]int{
		"socks_pairs": days,
		"underwear":   days,
		"shirts":      (days + 1) / 2,
		"trousers":    (days + 2) / 3,
	}
}
