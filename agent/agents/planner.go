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

type plannerAgent struct {
	genRunner compose.Runnable[map[string]any, *schema.Message]
	pipeline  *validate.Pipeline[contract.ItineraryPayload]
}

const plannerSchemaHint = `object with "destination" (string), "days" (array of objects with "day" positive integer and "activities" non-empty string array, covering every trip day exactly once), optional "tips" (string array)`

func newPlanner(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	repairPrompt string,
) (*plannerAgent, error) {
	genRunner, err := compileGenerationGraph(ctx, chatModel, systemPrompt, "planner.generation_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile planner graph: %v", contract.ErrModelInvoke, err)
	}
	pipeline, err := validate.NewPipeline[contract.ItineraryPayload](
		ctx, contract.TaskPlanner, chatModel, repairPrompt, plannerSchemaHint)
	if err != nil {
		return nil, err
	}
	return &plannerAgent{genRunner: genRunner, pipeline: pipeline}, nil
}

func (a *plannerAgent) Task() contract.TaskType {
	return contract.TaskPlanner
}

func (a *plannerAgent) Run(
	ctx context.Context,
	req contract.PlanningRequest,
	mem *memory.Session,
	tools contract.ToolGateway,
) contract.AgentResult {
	_, _ = mem.Append(memory.RoleAgent, string(contract.TaskPlanner),
		fmt.Sprintf("planning a %d-day itinerary for %s", req.Days, req.Destination))

	degraded := false
	facts := map[string]any{}

	// Weather is helpful but never blocks planning.
	weather, ok, err := resolveStringFact(ctx, mem, tools,
		weatherFactKey(req.Destination), tool.ToolWeather,
		map[string]any{"location": req.Destination}, formatWeather)
	if err != nil {
		return contract.FailedResult(contract.TaskPlanner, err.Error())
	}
	if ok {
		facts["weather"] = weather
	} else {
		degraded = true
	}

	if req.Origin != "" {
		route, ok, err := resolveStringFact(ctx, mem, tools,
			routeFactKey(req.Origin, req.Destination), tool.ToolRoute,
			map[string]any{"origin": req.Origin, "destination": req.Destination}, formatRoute)
		if err != nil {
			return contract.FailedResult(contract.TaskPlanner, err.Error())
		}
		if ok {
			facts["route"] = route
		} else {
			degraded = true
		}
	}

	// Resolve the exchange rate when the trip crosses currencies so the
	// itinerary can talk about local prices. Later agents reuse the fact.
	if local, cross := crossCurrency(req); cross {
		rate, ok, err := resolveRateFact(ctx, mem, tools, req.Budget.Currency, local)
		if err != nil {
			return contract.FailedResult(contract.TaskPlanner, err.Error())
		}
		if ok {
			facts["exchange_rate"] = rate
			facts["local_currency"] = local
		} else {
			degraded = true
		}
	}

	payload := map[string]any{
		"destination":  req.Destination,
		"days":         req.Days,
		"budget":       req.Budget,
		"preferences":  req.Preferences,
		"origin":       req.Origin,
		"facts":        facts,
		"advice":       adviceFor(req.Destination),
		"conversation": conversationContext(mem),
	}

	raw, err := invokeGeneration(ctx, a.genRunner, payload)
	if err != nil {
		return contract.FailedResult(contract.TaskPlanner, err.Error())
	}

	outcome := a.pipeline.Run(ctx, raw, validate.ItineraryCheck(req.Days))
	if outcome.Status == contract.StatusFailed {
		return contract.AgentResult{
			Task:       contract.TaskPlanner,
			Status:     contract.StatusFailed,
			Degraded:   degraded,
			Diagnostic: outcome.Diagnostic,
		}
	}

	if content, err := json.Marshal(outcome.Value); err == nil {
		_, _ = mem.Append(memory.RoleAgent, string(contract.TaskPlanner), string(content))
	}

	return contract.AgentResult{
		Task:     contract.TaskPlanner,
		Status:   outcome.Status,
		Payload:  *outcome.Value,
		Degraded: degraded,
	}
}

func formatWeather(payload any) (string, error) {
	report, ok := payload.(contract.WeatherReport)
	if !ok {
		return "", fmt.Errorf("%w: weather tool returned %T", contract.ErrValidation, payload)
	}
	return fmt.Sprintf("%s,%gC", report.Condition, report.TemperatureC), nil
}

func formatRoute(payload any) (string, error) {
	route, ok := payload.(contract.RouteOption)
	if !ok {
		return "", fmt.Errorf("%w: route tool returned %T", contract.ErrValidation, payload)
	}
	return fmt.Sprintf("%s,%dmin", route.SuggestedMode, route.DurationMinutes), nil
}
