package agents

import (
	"context"
	"fmt"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
	llmx "github.com/Pheglovog/travel-planner-agent/agent/llm"
	promptx "github.com/Pheglovog/travel-planner-agent/agent/prompt"
)

type registryImpl struct {
	planner   contract.TravelAgent
	checklist contract.TravelAgent
	budget    contract.TravelAgent
}

func (r *registryImpl) Planner() contract.TravelAgent {
	return r.planner
}

func (r *registryImpl) Checklist() contract.TravelAgent {
	return r.checklist
}

func (r *registryImpl) Budget() contract.TravelAgent {
	return r.budget
}

func (r *registryImpl) ForTask(task contract.TaskType) (contract.TravelAgent, error) {
	switch task {
	case contract.TaskPlanner:
		return r.planner, nil
	case contract.TaskChecklist:
		return r.checklist, nil
	case contract.TaskBudget:
		return r.budget, nil
	default:
		return nil, fmt.Errorf("%w: no agent registered for task=%s", contract.ErrValidation, task)
	}
}

func NewRegistry(ctx context.Context, cfg llmx.Config) (contract.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	plannerModelCfg := cfg.OpenRouterFor(contract.TaskPlanner)
	plannerModel, err := plannerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create planner model: %v", contract.ErrModelInvoke, err)
	}
	checklistModelCfg := cfg.OpenRouterFor(contract.TaskChecklist)
	checklistModel, err := checklistModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create checklist model: %v", contract.ErrModelInvoke, err)
	}
	budgetModelCfg := cfg.OpenRouterFor(contract.TaskBudget)
	budgetModel, err := budgetModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create budget model: %v", contract.ErrModelInvoke, err)
	}

	planner, err := newPlanner(ctx, plannerModel, prompts.Planner, prompts.Repair)
	if err != nil {
		return nil, err
	}
	checklist, err := newChecklist(ctx, checklistModel, prompts.Checklist, prompts.Repair)
	if err != nil {
		return nil, err
	}
	budget, err := newBudget(ctx, budgetModel, prompts.Budget, prompts.Repair)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		planner:   planner,
		checklist: checklist,
		budget:    budget,
	}, nil
}
