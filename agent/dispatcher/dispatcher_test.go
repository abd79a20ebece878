package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
	"github.com/Pheglovog/travel-planner-agent/agent/memory"
)

type stubAgent struct {
	task contract.TaskType
	run  func(ctx context.Context, req contract.PlanningRequest, mem *memory.Session, tools contract.ToolGateway) contract.AgentResult
}

func (s *stubAgent) Task() contract.TaskType {
	return s.task
}

func (s *stubAgent) Run(ctx context.Context, req contract.PlanningRequest, mem *memory.Session, tools contract.ToolGateway) contract.AgentResult {
	if s.run != nil {
		return s.run(ctx, req, mem, tools)
	}
	return contract.AgentResult{Task: s.task, Status: contract.StatusValid}
}

type stubRegistry struct {
	planner   contract.TravelAgent
	checklist contract.TravelAgent
	budget    contract.TravelAgent
}

func (r *stubRegistry) Planner() contract.TravelAgent   { return r.planner }
func (r *stubRegistry) Checklist() contract.TravelAgent { return r.checklist }
func (r *stubRegistry) Budget() contract.TravelAgent    { return r.budget }

func (r *stubRegistry) ForTask(task contract.TaskType) (contract.TravelAgent, error) {
	switch task {
	case contract.TaskPlanner:
		return r.planner, nil
	case contract.TaskChecklist:
		return r.checklist, nil
	case contract.TaskBudget:
		return r.budget, nil
	default:
		return nil, errors.New("unknown task")
	}
}

func okRegistry() *stubRegistry {
	return &stubRegistry{
		planner:   &stubAgent{task: contract.TaskPlanner},
		checklist: &stubAgent{task: contract.TaskChecklist},
		budget:    &stubAgent{task: contract.TaskBudget},
	}
}

type nopGateway struct{}

func (nopGateway) Invoke(ctx context.Context, tool string, args map[string]any) (contract.ToolResult, error) {
	return contract.ToolResult{Tool: tool}, nil
}

type recordingStore struct {
	mu    sync.Mutex
	saved []contract.AggregatedResponse
	err   error
}

func (s *recordingStore) SavePlan(ctx context.Context, req contract.PlanningRequest, resp contract.AggregatedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, resp)
	return nil
}

func kyotoRequest(t *testing.T) contract.PlanningRequest {
	t.Helper()
	req, err := contract.NewPlanningRequest("Kyoto", 3, contract.Money{Amount: 5000, Currency: "CNY"}, []string{"culture"}, "Tokyo")
	if err != nil {
		t.Fatalf("NewPlanningRequest() error = %v", err)
	}
	return req
}

func TestDispatchDefaultsToAllTasks(t *testing.T) {
	t.Parallel()

	disp, err := New(okRegistry(), nopGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := disp.Dispatch(context.Background(), kyotoRequest(t))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("session id must be set")
	}
	if resp.Status != contract.OverallOK {
		t.Fatalf("expected ok, got %s", resp.Status)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}

	wantOrder := contract.AllTasks()
	for i, res := range resp.Results {
		if res.Task != wantOrder[i] {
			t.Fatalf("result %d: got task %s want %s", i, res.Task, wantOrder[i])
		}
	}
}

func TestDispatchPlannerRunsBeforeOthers(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []contract.TaskType
	record := func(task contract.TaskType) func(context.Context, contract.PlanningRequest, *memory.Session, contract.ToolGateway) contract.AgentResult {
		return func(context.Context, contract.PlanningRequest, *memory.Session, contract.ToolGateway) contract.AgentResult {
			mu.Lock()
			order = append(order, task)
			mu.Unlock()
			return contract.AgentResult{Task: task, Status: contract.StatusValid}
		}
	}
	reg := &stubRegistry{
		planner:   &stubAgent{task: contract.TaskPlanner, run: record(contract.TaskPlanner)},
		checklist: &stubAgent{task: contract.TaskChecklist, run: record(contract.TaskChecklist)},
		budget:    &stubAgent{task: contract.TaskBudget, run: record(contract.TaskBudget)},
	}

	disp, err := New(reg, nopGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := disp.Dispatch(context.Background(), kyotoRequest(t)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(order) != 3 || order[0] != contract.TaskPlanner {
		t.Fatalf("planner must run first, got order %v", order)
	}
}

func TestDispatchSharesOneSession(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := map[string]int{}
	capture := func(task contract.TaskType) func(context.Context, contract.PlanningRequest, *memory.Session, contract.ToolGateway) contract.AgentResult {
		return func(_ context.Context, _ contract.PlanningRequest, mem *memory.Session, _ contract.ToolGateway) contract.AgentResult {
			mu.Lock()
			seen[mem.ID()]++
			mu.Unlock()
			return contract.AgentResult{Task: task, Status: contract.StatusValid}
		}
	}
	reg := &stubRegistry{
		planner:   &stubAgent{task: contract.TaskPlanner, run: capture(contract.TaskPlanner)},
		checklist: &stubAgent{task: contract.TaskChecklist, run: capture(contract.TaskChecklist)},
		budget:    &stubAgent{task: contract.TaskBudget, run: capture(contract.TaskBudget)},
	}

	disp, err := New(reg, nopGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	resp, err := disp.Dispatch(context.Background(), kyotoRequest(t))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(seen) != 1 {
		t.Fatalf("all agents must share one session, saw %d", len(seen))
	}
	if seen[resp.SessionID] != 3 {
		t.Fatalf("expected 3 runs against session %s, got %d", resp.SessionID, seen[resp.SessionID])
	}
}

func TestDispatchPartialStatus(t *testing.T) {
	t.Parallel()

	reg := okRegistry()
	reg.budget = &stubAgent{task: contract.TaskBudget, run: func(context.Context, contract.PlanningRequest, *memory.Session, contract.ToolGateway) contract.AgentResult {
		return contract.FailedResult(contract.TaskBudget, "no exchange rate")
	}}

	disp, err := New(reg, nopGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	resp, err := disp.Dispatch(context.Background(), kyotoRequest(t))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if resp.Status != contract.OverallPartial {
		t.Fatalf("expected partial, got %s", resp.Status)
	}
	res, ok := resp.Result(contract.TaskBudget)
	if !ok || res.Status != contract.StatusFailed {
		t.Fatalf("budget result should be the failed one: %#v", res)
	}
	if res.Diagnostic != "no exchange rate" {
		t.Fatalf("failed results keep their diagnostic, got %q", res.Diagnostic)
	}
}

func TestDispatchAllFailed(t *testing.T) {
	t.Parallel()

	failing := func(task contract.TaskType) *stubAgent {
		return &stubAgent{task: task, run: func(context.Context, contract.PlanningRequest, *memory.Session, contract.ToolGateway) contract.AgentResult {
			return contract.FailedResult(task, "model unavailable")
		}}
	}
	reg := &stubRegistry{
		planner:   failing(contract.TaskPlanner),
		checklist: failing(contract.TaskChecklist),
		budget:    failing(contract.TaskBudget),
	}

	disp, err := New(reg, nopGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	resp, err := disp.Dispatch(context.Background(), kyotoRequest(t))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if resp.Status != contract.OverallFailed {
		t.Fatalf("expected failed, got %s", resp.Status)
	}
}

func TestDispatchTaskSelectionAndDedupe(t *testing.T) {
	t.Parallel()

	disp, err := New(okRegistry(), nopGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := disp.Dispatch(context.Background(), kyotoRequest(t),
		contract.TaskBudget, contract.TaskPlanner, contract.TaskBudget)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 deduped results, got %d", len(resp.Results))
	}
	if resp.Results[0].Task != contract.TaskPlanner || resp.Results[1].Task != contract.TaskBudget {
		t.Fatalf("unexpected order: %v, %v", resp.Results[0].Task, resp.Results[1].Task)
	}
	if _, ok := resp.Result(contract.TaskChecklist); ok {
		t.Fatal("unselected tasks must not appear in the response")
	}
}

func TestDispatchRejectsUnknownTask(t *testing.T) {
	t.Parallel()

	disp, err := New(okRegistry(), nopGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = disp.Dispatch(context.Background(), kyotoRequest(t), contract.TaskType("concierge"))
	if !errors.Is(err, contract.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	disp, err := New(okRegistry(), nopGateway{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := disp.Dispatch(ctx, kyotoRequest(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDispatchArchivesCompletedCycles(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	disp, err := New(okRegistry(), nopGateway{}, WithPlanStore(store))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := disp.Dispatch(context.Background(), kyotoRequest(t))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.saved) != 1 {
		t.Fatalf("expected one archived cycle, got %d", len(store.saved))
	}
	if store.saved[0].SessionID != resp.SessionID {
		t.Fatalf("archived session %s does not match response %s", store.saved[0].SessionID, resp.SessionID)
	}
}

func TestDispatchStoreFailureDoesNotSurface(t *testing.T) {
	t.Parallel()

	store := &recordingStore{err: errors.New("db down")}
	disp, err := New(okRegistry(), nopGateway{}, WithPlanStore(store))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := disp.Dispatch(context.Background(), kyotoRequest(t)); err != nil {
		t.Fatalf("plan store errors must be swallowed, got %v", err)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nopGateway{}); err == nil {
		t.Fatal("nil registry must be rejected")
	}
	if _, err := New(okRegistry(), nil); err == nil {
		t.Fatal("nil gateway must be rejected")
	}
}
