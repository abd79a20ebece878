package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
)

const (
	ToolWeather  = "weather"
	ToolCurrency = "currency"
	ToolRoute    = "route"
)

const (
	defaultCallTimeout = 8 * time.Second
	defaultBackoff     = 500 * time.Millisecond
)

// Provider is one external data source behind the invoker. Fetch returns the
// tool's typed payload or an error; the invoker decides what is retryable.
type Provider interface {
	Name() string
	Required() []string
	Fetch(ctx context.Context, args map[string]any) (any, error)
}

// Invoker is the uniform capability wrapper around the registered tool set.
// A transient provider error gets exactly one retry with backoff before it
// surfaces as a failure marker in the ToolResult; contract violations
// (unknown tool, missing parameters) return an error without any call.
type Invoker struct {
	providers map[string]Provider
	timeout   time.Duration
	backoff   time.Duration
	log       zerolog.Logger
}

type Option func(*Invoker)

func WithProvider(p Provider) Option {
	return func(inv *Invoker) {
		if p != nil {
			inv.providers[p.Name()] = p
		}
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(inv *Invoker) {
		if d > 0 {
			inv.timeout = d
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(inv *Invoker) {
		if d >= 0 {
			inv.backoff = d
		}
	}
}

// NewInvoker registers the fixed tool set {weather, currency, route} with the
// built-in reference providers; options can swap providers in.
func NewInvoker(opts ...Option) *Invoker {
	inv := &Invoker{
		providers: map[string]Provider{
			ToolWeather:  NewStaticWeatherProvider(),
			ToolCurrency: NewStaticCurrencyProvider(),
			ToolRoute:    NewStaticRouteProvider(),
		},
		timeout: defaultCallTimeout,
		backoff: defaultBackoff,
		log:     log.With().Str("component", "tool_invoker").Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(inv)
		}
	}
	return inv
}

var _ contract.ToolGateway = (*Invoker)(nil)

func (inv *Invoker) Invoke(ctx context.Context, tool string, args map[string]any) (contract.ToolResult, error) {
	provider, ok := inv.providers[tool]
	if !ok {
		return contract.ToolResult{}, fmt.Errorf("%w: %q", contract.ErrUnknownTool, tool)
	}
	if err := checkRequired(provider, args); err != nil {
		return contract.ToolResult{}, err
	}

	payload, err := inv.callOnce(ctx, provider, args)
	if err != nil {
		if ctx.Err() != nil {
			return contract.ToolResult{}, ctx.Err()
		}
		inv.log.Warn().Str("tool", tool).Err(err).Msg("tool call failed, retrying once")
		select {
		case <-time.After(inv.backoff):
		case <-ctx.Done():
			return contract.ToolResult{}, ctx.Err()
		}
		payload, err = inv.callOnce(ctx, provider, args)
	}
	if err != nil {
		inv.log.Error().Str("tool", tool).Err(err).Msg("tool call failed after retry")
		return contract.ToolResult{
			Tool: tool,
			Err:  fmt.Sprintf("%v: %v", contract.ErrToolFailure, err),
		}, nil
	}

	return contract.ToolResult{Tool: tool, Payload: payload}, nil
}

func (inv *Invoker) callOnce(ctx context.Context, provider Provider, args map[string]any) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()
	return provider.Fetch(callCtx, args)
}

func checkRequired(provider Provider, args map[string]any) error {
	for _, key := range provider.Required() {
		raw, ok := args[key]
		if !ok {
			return fmt.Errorf("%w: tool %s requires %q", contract.ErrInvalidParameters, provider.Name(), key)
		}
		if s, isStr := raw.(string); isStr && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: tool %s parameter %q is empty", contract.ErrInvalidParameters, provider.Name(), key)
		}
	}
	return nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}
