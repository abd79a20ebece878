package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
	"github.com/Pheglovog/travel-planner-agent/agent/memory"
)

// Dispatcher fans one planning request out to the selected agents. The
// planner runs first so that its tool facts are in session memory before the
// checklist and budget agents start; those two run concurrently.
type Dispatcher struct {
	agents contract.Registry
	tools  contract.ToolGateway
	store  contract.PlanStore

	log zerolog.Logger
	now func() time.Time
}

type Option func(*Dispatcher)

// WithPlanStore archives every completed dispatch cycle. Store failures are
// logged, never surfaced to the caller.
func WithPlanStore(store contract.PlanStore) Option {
	return func(d *Dispatcher) {
		d.store = store
	}
}

func New(agents contract.Registry, tools contract.ToolGateway, opts ...Option) (*Dispatcher, error) {
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	d := &Dispatcher{
		agents: agents,
		tools:  tools,
		log:    log.With().Str("component", "dispatcher").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch runs one full cycle: create a session, record the request as the
// opening user turn, run the selected agents, and aggregate their results.
// Tasks defaults to all three agents; duplicates are dropped, order is
// normalized to dependency order. An error return means the cycle itself
// could not run; per-agent failures land in the response results.
func (d *Dispatcher) Dispatch(ctx context.Context, req contract.PlanningRequest, tasks ...contract.TaskType) (contract.AggregatedResponse, error) {
	selected, err := selectTasks(tasks)
	if err != nil {
		return contract.AggregatedResponse{}, err
	}

	sess := memory.NewSession()
	started := d.now()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return contract.AggregatedResponse{}, fmt.Errorf("%w: marshal planning request: %v", contract.ErrValidation, err)
	}
	if _, err := sess.Append(memory.RoleUser, "user", string(reqJSON)); err != nil {
		return contract.AggregatedResponse{}, err
	}

	d.log.Info().
		Str("session_id", sess.ID()).
		Str("destination", req.Destination).
		Int("days", req.Days).
		Int("tasks", len(selected)).
		Msg("dispatch started")

	results := make([]contract.AgentResult, len(selected))
	slot := make(map[contract.TaskType]int, len(selected))
	for i, task := range selected {
		slot[task] = i
	}

	// Stage one: the planner, alone. Its run resolves the weather, route,
	// and exchange rate facts the later agents read from memory.
	if i, ok := slot[contract.TaskPlanner]; ok {
		if err := ctx.Err(); err != nil {
			return contract.AggregatedResponse{}, err
		}
		results[i] = d.runAgent(ctx, d.agents.Planner(), req, sess)
	}

	// Stage two: checklist and budget, concurrently. Each writes only its
	// own indexed slot.
	var wg sync.WaitGroup
	for _, task := range []contract.TaskType{contract.TaskChecklist, contract.TaskBudget} {
		i, ok := slot[task]
		if !ok {
			continue
		}
		agent, err := d.agents.ForTask(task)
		if err != nil {
			return contract.AggregatedResponse{}, err
		}
		wg.Add(1)
		go func(i int, agent contract.TravelAgent) {
			defer wg.Done()
			results[i] = d.runAgent(ctx, agent, req, sess)
		}(i, agent)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return contract.AggregatedResponse{}, err
	}

	resp := contract.AggregatedResponse{
		SessionID: sess.ID(),
		Status:    overallStatus(results),
		Results:   results,
	}

	d.log.Info().
		Str("session_id", sess.ID()).
		Str("status", string(resp.Status)).
		Dur("elapsed", d.now().Sub(started)).
		Msg("dispatch finished")

	if d.store != nil {
		if err := d.store.SavePlan(ctx, req, resp); err != nil {
			d.log.Warn().Err(err).Str("session_id", sess.ID()).Msg("plan archive failed")
		}
	}

	return resp, nil
}

func (d *Dispatcher) runAgent(ctx context.Context, agent contract.TravelAgent, req contract.PlanningRequest, sess *memory.Session) contract.AgentResult {
	started := d.now()
	res := agent.Run(ctx, req, sess, d.tools)
	evt := d.log.Info()
	if res.Status == contract.StatusFailed {
		evt = d.log.Warn()
	}
	evt.
		Str("session_id", sess.ID()).
		Str("task", string(res.Task)).
		Str("status", string(res.Status)).
		Bool("degraded", res.Degraded).
		Dur("elapsed", d.now().Sub(started)).
		Msg("agent finished")
	return res
}

// selectTasks dedupes the requested tasks and orders them planner first.
func selectTasks(tasks []contract.TaskType) ([]contract.TaskType, error) {
	if len(tasks) == 0 {
		return contract.AllTasks(), nil
	}
	requested := make(map[contract.TaskType]struct{}, len(tasks))
	for _, task := range tasks {
		parsed, err := contract.ParseTaskType(string(task))
		if err != nil {
			return nil, err
		}
		requested[parsed] = struct{}{}
	}
	selected := make([]contract.TaskType, 0, len(requested))
	for _, task := range contract.AllTasks() {
		if _, ok := requested[task]; ok {
			selected = append(selected, task)
		}
	}
	return selected, nil
}

func overallStatus(results []contract.AgentResult) contract.OverallStatus {
	failed := 0
	for _, res := range results {
		if res.Status == contract.StatusFailed {
			failed++
		}
	}
	switch {
	case len(results) == 0 || failed == 0:
		return contract.OverallOK
	case failed == len(results):
		return contract.OverallFailed
	default:
		return contract.OverallPartial
	}
}
