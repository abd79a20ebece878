package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
)

// MaxRepairAttempts bounds corrective regeneration per agent result.
const MaxRepairAttempts = 2

// Pipeline turns one raw model response into a schema-valid payload. The path
// is a small state machine: unvalidated -> valid on a direct pass, otherwise
// unvalidated -> invalid -> repairing -> valid | failed, with at most
// MaxRepairAttempts regeneration calls. Failed outcomes keep the last
// violation for diagnostics; they are never replaced with defaults.
type Pipeline[T any] struct {
	task         contract.TaskType
	schemaHint   string
	repairRunner compose.Runnable[map[string]any, *schema.Message]
	log          zerolog.Logger
}

// Outcome is the terminal state of one validation run.
type Outcome[T any] struct {
	Value      *T
	Status     contract.ValidationStatus
	Attempts   int
	Diagnostic string
}

func NewPipeline[T any](
	ctx context.Context,
	task contract.TaskType,
	chatModel einomodel.BaseChatModel,
	repairPrompt string,
	schemaHint string,
) (*Pipeline[T], error) {
	if strings.TrimSpace(repairPrompt) == "" {
		return nil, fmt.Errorf("%w: repair prompt for task=%s", contract.ErrPromptMissing, task)
	}
	runner, err := compileRepairGraph(ctx, chatModel, repairPrompt, fmt.Sprintf("%s.repair_graph", task))
	if err != nil {
		return nil, fmt.Errorf("%w: compile repair graph: %v", contract.ErrModelInvoke, err)
	}
	return &Pipeline[T]{
		task:         task,
		schemaHint:   schemaHint,
		repairRunner: runner,
		log:          log.With().Str("component", "validate").Str("task", string(task)).Logger(),
	}, nil
}

// Run validates raw against the task schema plus check, repairing on failure.
func (p *Pipeline[T]) Run(ctx context.Context, raw string, check Check[T]) Outcome[T] {
	value, err := p.parseAndCheck(raw, check)
	if err == nil {
		return Outcome[T]{Value: value, Status: contract.StatusValid}
	}

	current := raw
	for attempt := 1; attempt <= MaxRepairAttempts; attempt++ {
		p.log.Warn().Int("attempt", attempt).Err(err).Msg("output invalid, repairing")

		repaired, repairErr := p.regenerate(ctx, current, err)
		if repairErr != nil {
			if ctx.Err() != nil {
				return Outcome[T]{
					Status:     contract.StatusFailed,
					Attempts:   attempt,
					Diagnostic: fmt.Sprintf("repair cancelled: %v", ctx.Err()),
				}
			}
			err = fmt.Errorf("%w: repair call: %v", contract.ErrModelInvoke, repairErr)
			continue
		}
		current = repaired

		value, err = p.parseAndCheck(current, check)
		if err == nil {
			return Outcome[T]{Value: value, Status: contract.StatusRepaired, Attempts: attempt}
		}
	}

	return Outcome[T]{
		Status:     contract.StatusFailed,
		Attempts:   MaxRepairAttempts,
		Diagnostic: fmt.Sprintf("%v: %v", contract.ErrRepairExhausted, err),
	}
}

func (p *Pipeline[T]) parseAndCheck(raw string, check Check[T]) (*T, error) {
	value, err := decode[T](raw)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(value); err != nil {
			return nil, err
		}
	}
	return value, nil
}

func (p *Pipeline[T]) regenerate(ctx context.Context, original string, violation error) (string, error) {
	payload := map[string]any{
		"task":      string(p.task),
		"schema":    p.schemaHint,
		"violation": violation.Error(),
		"original":  original,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal repair payload: %w", err)
	}

	msg, err := p.repairRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return "", err
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("empty repair response")
	}
	return msg.Content, nil
}

func compileRepairGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add repair prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add repair model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add repair edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add repair edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add repair edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile repair graph: %w", err)
	}
	return runner, nil
}
