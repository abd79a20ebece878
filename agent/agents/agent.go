package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
	"github.com/Pheglovog/travel-planner-agent/agent/memory"
	"github.com/Pheglovog/travel-planner-agent/agent/tool"
)

// snapshotLimit bounds how many recent turns go into a generation payload.
const snapshotLimit = 8

func compileGenerationGraph(
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
		return nil, fmt.Errorf("add generation prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add generation model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add generation edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add generation edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add generation edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile generation graph: %w", err)
	}
	return runner, nil
}

func invokeGeneration(
	ctx context.Context,
	runner compose.Runnable[map[string]any, *schema.Message],
	payload map[string]any,
) (string, error) {
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal generation payload: %v", contract.ErrValidation, err)
	}
	msg, err := runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contract.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: empty generation response", contract.ErrModelInvoke)
	}
	return msg.Content, nil
}

/* ------------------------------ fact helpers ----------------------------- */

func weatherFactKey(location string) string {
	return "weather." + strings.ToLower(strings.TrimSpace(location))
}

func currencyFactKey(base, target string) string {
	return "currency." + strings.ToUpper(base) + "-" + strings.ToUpper(target)
}

func routeFactKey(origin, destination string) string {
	return "route." + strings.ToLower(strings.TrimSpace(origin)) + "-" + strings.ToLower(strings.TrimSpace(destination))
}

// resolveStringFact returns the cached fact for key, or invokes the tool once
// and memoizes the result rendered by format. The bool reports success; a
// false return means the tool failed and the caller decides whether that is
// fatal. An unexpected invoker error (contract violation, cancellation) is
// returned as err and always fatal for the calling agent.
func resolveStringFact(
	ctx context.Context,
	mem *memory.Session,
	tools contract.ToolGateway,
	key string,
	toolName string,
	args map[string]any,
	format func(payload any) (string, error),
) (string, bool, error) {
	if fact, err := mem.Fact(key); err == nil {
		return fact.String(), true, nil
	}

	result, err := tools.Invoke(ctx, toolName, args)
	if err != nil {
		return "", false, err
	}
	if result.Failed() {
		return result.Err, false, nil
	}

	rendered, err := format(result.Payload)
	if err != nil {
		return "", false, err
	}
	// An abandoned run must not leave partial fact writes behind.
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	if err := mem.SetFact(key, memory.StringFact(rendered)); err != nil {
		return "", false, err
	}
	recordToolTurn(mem, toolName, result.Payload)
	return rendered, true, nil
}

// resolveRateFact memoizes an exchange rate as a numeric fact.
func resolveRateFact(
	ctx context.Context,
	mem *memory.Session,
	tools contract.ToolGateway,
	base string,
	target string,
) (float64, bool, error) {
	key := currencyFactKey(base, target)
	if fact, err := mem.Fact(key); err == nil {
		return fact.Num, true, nil
	}

	result, err := tools.Invoke(ctx, tool.ToolCurrency, map[string]any{
		"base":   base,
		"target": target,
	})
	if err != nil {
		return 0, false, err
	}
	if result.Failed() {
		return 0, false, nil
	}

	rate, ok := result.Payload.(contract.ExchangeRate)
	if !ok {
		return 0, false, fmt.Errorf("%w: currency tool returned %T", contract.ErrValidation, result.Payload)
	}
	if ctx.Err() != nil {
		return 0, false, ctx.Err()
	}
	if err := mem.SetFact(key, memory.NumberFact(rate.Rate)); err != nil {
		return 0, false, err
	}
	recordToolTurn(mem, tool.ToolCurrency, result.Payload)
	return rate.Rate, true, nil
}

func recordToolTurn(mem *memory.Session, toolName string, payload any) {
	content, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = mem.Append(memory.RoleTool, toolName, string(content))
}

// conversationContext renders the recent ledger for a generation payload.
func conversationContext(mem *memory.Session) []map[string]string {
	turns := mem.SnapshotTurns()
	if len(turns) > snapshotLimit {
		turns = turns[len(turns)-snapshotLimit:]
	}
	out := make([]map[string]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, map[string]string{
			"role":    string(t.Role),
			"actor":   t.Actor,
			"content": t.Content,
		})
	}
	return out
}

/* ---------------------------- destination data --------------------------- */

var destinationCurrencies = map[string]string{
	"tokyo":    "JPY",
	"kyoto":    "JPY",
	"osaka":    "JPY",
	"nara":     "JPY",
	"seoul":    "KRW",
	"paris":    "EUR",
	"new york": "USD",
}

// destinationCurrency reports the local currency of a destination. Unknown
// destinations report false and no currency conversion is attempted.
func destinationCurrency(destination string) (string, bool) {
	c, ok := destinationCurrencies[strings.ToLower(strings.TrimSpace(destination))]
	return c, ok
}

// crossCurrency reports whether the request budget needs conversion into the
// destination's local currency.
func crossCurrency(req contract.PlanningRequest) (string, bool) {
	local, ok := destinationCurrency(req.Destination)
	if !ok || strings.EqualFold(local, req.Budget.Currency) {
		return "", false
	}
	return local, true
}
