package contract

import (
	"context"

	"github.com/Pheglovog/travel-planner-agent/agent/memory"
)

// TravelAgent is the single capability contract shared by the planner,
// checklist, and budget variants. Tool and validation failures are captured
// in the returned AgentResult rather than surfaced as errors; an error return
// is reserved for cancellation and programming mistakes.
type TravelAgent interface {
	Task() TaskType
	Run(ctx context.Context, req PlanningRequest, mem *memory.Session, tools ToolGateway) AgentResult
}

type Registry interface {
	Planner() TravelAgent
	Checklist() TravelAgent
	Budget() TravelAgent
	ForTask(task TaskType) (TravelAgent, error)
}

// ToolGateway executes one registered tool call. The error return covers
// contract violations only (unknown tool, invalid parameters); transient
// provider failures come back inside the ToolResult.
type ToolGateway interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (ToolResult, error)
}

// PlanStore archives completed dispatch cycles.
type PlanStore interface {
	SavePlan(ctx context.Context, req PlanningRequest, resp AggregatedResponse) error
}
